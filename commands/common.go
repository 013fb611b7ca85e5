package commands

import (
	"context"

	"github.com/sisu-network/flashrace/client"
	"github.com/sisu-network/flashrace/config"
	"github.com/sisu-network/flashrace/core"
	"github.com/sisu-network/lib/log"
)

func newProcessor(ctx context.Context, cfg *config.FlashRace) (*core.Processor, error) {
	var minter client.Client
	if cfg.MintServerUrl != "" {
		mintClient := client.NewClient(cfg.MintServerUrl)
		if err := mintClient.TryDial(ctx); err != nil {
			return nil, err
		}
		minter = mintClient
	} else {
		log.Warn("No mint server url configured, race results will not be minted")
	}

	return core.NewProcessorFromConfig(ctx, cfg, minter)
}
