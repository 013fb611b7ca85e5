package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sisu-network/flashrace/config"
	"github.com/sisu-network/flashrace/core"
	"github.com/sisu-network/flashrace/flags"
	"github.com/sisu-network/flashrace/server"
	"github.com/sisu-network/lib/log"
	"github.com/urfave/cli/v2"
)

// Serve runs both pollers and the JSON-RPC api until the process is interrupted.
func Serve(c *cli.Context) error {
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

	handler, err := server.NewRpcHandler(server.NewApi(processor))
	if err != nil {
		return err
	}
	srv := server.NewServer(handler, cfg.ServerPort, cfg.MetricsEnabled)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	if interval := c.Duration(flags.RenderInterval.Name); interval > 0 {
		go render(ctx, processor, interval)
	}

	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case err = <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func render(ctx context.Context, processor *core.Processor, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			processor.Presenter().Render(os.Stdout, processor.GetViews())
		}
	}
}
