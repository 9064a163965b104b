package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hegemone/cmd/hegemone/console"
	"github.com/mklimuk/hegemone/onewire"
)

var w1Cmd = cli.Command{
	Name:  "w1",
	Usage: "1-Wire temperature probes",
	Subcommands: []*cli.Command{
		&w1ReadCmd,
		&w1LsCmd,
	},
}

var w1ReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "probe id, e.g. 28-0033c3000096"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail("configuration error", err)
		}
		if c.IsSet("id") {
			cfg.OneWire.DeviceID = c.String("id")
		}
		temp, err := newThermometer(cfg).ReadTemperature(newContext(c))
		if err != nil {
			return console.Fail("error getting temperature read", err)
		}
		console.Measurement(console.PictoThermometer, cfg.OneWire.DeviceID, fmt.Sprintf("%.3f", temp), " °C")
		return nil
	},
}

var w1LsCmd = cli.Command{
	Name: "ls",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail("configuration error", err)
		}
		ids, err := onewire.Probes(os.DirFS(cfg.OneWire.MasterDir))
		if err != nil {
			return console.Fail("could not list probes", err)
		}
		for _, id := range ids {
			console.Print(id)
		}
		return nil
	},
}
