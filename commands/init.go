package commands

import (
	"github.com/sisu-network/flashrace/config"
	"github.com/sisu-network/flashrace/flags"
	"github.com/sisu-network/lib/log"
	"github.com/urfave/cli/v2"
)

// Init writes the default config file.
func Init(c *cli.Context) error {
	path := c.String(flags.Output.Name)
	if err := config.WriteConfigFile(path, config.Default()); err != nil {
		return err
	}

	log.Info("Config file is written to ", path)
	return nil
}
