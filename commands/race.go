package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sisu-network/flashrace/config"
	"github.com/sisu-network/flashrace/flags"
	"github.com/sisu-network/lib/log"
	"github.com/urfave/cli/v2"
)

// Race broadcasts one signed transaction, waits until both cadences saw it or the race timed out
// and prints the comparison.
func Race(c *cli.Context) error {
	rawTx, err := hexutil.Decode(c.String(flags.RawTx.Name))
	if err != nil {
		return fmt.Errorf("invalid raw tx: %w", err)
	}

	cfg, err := config.LoadOrDefault(c.String(flags.Config.Name))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor, err := newProcessor(ctx, cfg)
	if err != nil {
		return err
	}
	processor.Start(ctx)
	defer processor.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.Duration(flags.Warmup.Name)):
	}

	report, err := processor.StartRace(ctx, rawTx)
	if err != nil {
		return err
	}
	log.Info("Racing tx ", report.Handle.Hash.Hex())

	waitCtx, cancel := context.WithTimeout(ctx, cfg.RaceTimeout()+cfg.RequestTimeout())
	defer cancel()

	if _, err := processor.WaitRace(waitCtx, report.RaceID); err != nil {
		return err
	}

	processor.Presenter().Render(os.Stdout, processor.GetViews())
	return nil
}
