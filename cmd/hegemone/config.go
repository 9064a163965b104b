package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hegemone/cmd/hegemone/console"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "print the effective configuration",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail("configuration error", err)
		}
		out, err := cfg.Marshal()
		if err != nil {
			return console.Fail("encoding error", err)
		}
		console.Printf("%s", out)
		return nil
	},
}
