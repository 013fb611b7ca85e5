package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sisu-network/flashrace/commands"
	"github.com/sisu-network/flashrace/flags"
	"github.com/sisu-network/lib/log"
	"github.com/urfave/cli/v2"
)

func main() {
	// .env is optional.
	if err := godotenv.Load(); err == nil {
		log.Info("Loaded .env file")
	}

	app := &cli.App{
		Name:  "flashrace",
		Usage: "compares transaction confirmation time of regular blocks vs flashblocks",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "writes the default config file",
				Flags:  []cli.Flag{flags.Output},
				Action: commands.Init,
			},
			{
				Name:  "serve",
				Usage: "polls both cadences and serves the flash json-rpc api",
				Flags: []cli.Flag{
					flags.Config,
					flags.RenderInterval,
				},
				Action: commands.Serve,
			},
			{
				Name:  "race",
				Usage: "broadcasts a signed transaction and prints how fast each cadence confirmed it",
				Flags: []cli.Flag{
					flags.Config,
					flags.RawTx,
					flags.Warmup,
				},
				Action: commands.Race,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
