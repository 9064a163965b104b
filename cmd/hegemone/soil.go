package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hegemone/cmd/hegemone/console"
	"github.com/mklimuk/hegemone/i2c"
	"github.com/mklimuk/hegemone/pkg/config"
)

var soilCmd = cli.Command{
	Name:  "soil",
	Usage: "seesaw soil sensor",
	Subcommands: []*cli.Command{
		&soilReadCmd,
	},
}

var soilReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, cfg config.Config, bus *i2c.Handle) error {
			s := newSoil(cfg, bus)
			if moisture, err := s.ReadMoisture(ctx); err != nil {
				console.Unavailable(console.PictoHumidity, "moisture", err)
			} else {
				console.Measurement(console.PictoHumidity, "moisture", moisture, "")
			}
			if temp, err := s.ReadTemperature(ctx); err != nil {
				console.Unavailable(console.PictoThermometer, "soil temp", err)
			} else {
				console.Measurement(console.PictoThermometer, "soil temp", fmt.Sprintf("%.2f", temp), " °C")
			}
			return nil
		})
	},
}

var lightCmd = cli.Command{
	Name:  "light",
	Usage: "VEML7700 ambient light sensor",
	Subcommands: []*cli.Command{
		&lightReadCmd,
	},
}

var lightReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, cfg config.Config, bus *i2c.Handle) error {
			s := newLight(cfg, bus)
			if err := s.Configure(ctx); err != nil {
				return console.Fail("error configuring light sensor", err)
			}
			white, err := s.ReadWhite(ctx)
			if err != nil {
				return console.Fail("error getting white light read", err)
			}
			console.Measurement(console.PictoSun, "white", white, "")
			if als, err := s.ReadALS(ctx); err != nil {
				console.Unavailable(console.PictoSun, "ambient", err)
			} else {
				console.Measurement(console.PictoSun, "ambient", als, "")
			}
			return nil
		})
	},
}
