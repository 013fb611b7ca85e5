package flags

import (
	"time"

	"github.com/urfave/cli/v2"
)

// CLI flags for flashrace
var (
	Config = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path of the toml config file, the Base Sepolia defaults are used when empty",
	}
	Output = &cli.StringFlag{
		Name:  "output",
		Usage: "path of the config file to generate",
		Value: "flashrace.toml",
	}
	RawTx = &cli.StringFlag{
		Name:     "raw-tx",
		Usage:    "hex encoded signed transaction to broadcast on the fast cadence",
		Required: true,
	}
	Warmup = &cli.DurationFlag{
		Name:  "warmup",
		Usage: "time to let both pollers see a block before broadcasting",
		Value: 3 * time.Second,
	}
	RenderInterval = &cli.DurationFlag{
		Name:  "render-interval",
		Usage: "print the cadence table at this interval, 0 disables it",
	}
)
