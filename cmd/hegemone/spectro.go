package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/hegemone/cmd/hegemone/console"
	"github.com/mklimuk/hegemone/i2c"
	"github.com/mklimuk/hegemone/pkg/config"
	"github.com/mklimuk/hegemone/spectral"
)

var spectroCmd = cli.Command{
	Name:    "spectro",
	Aliases: []string{"as7341"},
	Usage:   "AS7341 spectral sensor",
	Subcommands: []*cli.Command{
		&spectroReadCmd,
		&spectroRLQICmd,
		&spectroStatusCmd,
		&spectroOffCmd,
	},
}

func acquire(ctx context.Context, cfg config.Config, bus *i2c.Handle) (spectral.Reading, error) {
	s := newSpectrometer(cfg, bus)
	if err := s.Configure(ctx); err != nil {
		return spectral.Reading{}, err
	}
	return s.PhotonFlux(ctx)
}

var spectroReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, cfg config.Config, bus *i2c.Handle) error {
			r, err := acquire(ctx, cfg, bus)
			if err != nil {
				return console.Fail("error getting spectral read", err)
			}
			for _, ch := range spectral.Channels() {
				console.Measurement(console.PictoRainbow, ch.String(), r.Get(ch), "")
			}
			return nil
		})
	},
}

var spectroRLQICmd = cli.Command{
	Name:  "rlqi",
	Usage: "relative light quality index",
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, cfg config.Config, bus *i2c.Handle) error {
			r, err := acquire(ctx, cfg, bus)
			if err != nil {
				return console.Fail("error getting spectral read", err)
			}
			q, err := spectral.RLQI(r)
			if err != nil {
				return console.Fail("light quality unavailable", err)
			}
			console.Measurement(console.PictoRainbow, "blue", q.Blue, " %")
			console.Measurement(console.PictoRainbow, "green", q.Green, " %")
			console.Measurement(console.PictoRainbow, "red", q.Red, " %")
			return nil
		})
	},
}

var spectroStatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		return withBus(c, func(ctx context.Context, cfg config.Config, bus *i2c.Handle) error {
			status, err := newSpectrometer(cfg, bus).ChipStatus(ctx)
			if err != nil {
				return console.Fail("device communication error", err)
			}
			if err := yaml.NewEncoder(os.Stdout).Encode(status); err != nil {
				return console.Fail("encoding error", err)
			}
			if !status.Healthy() {
				console.Warn("chip reports an error condition")
			}
			return nil
		})
	},
}

var spectroOffCmd = cli.Command{
	Name:  "off",
	Usage: "power the spectrometer down",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
	},
	Action: func(c *cli.Context) error {
		ok, err := console.Confirm("power off the spectrometer?", c.Bool("yes"))
		if err != nil {
			return console.Fail("prompt error", err)
		}
		if !ok {
			return nil
		}
		return withBus(c, func(ctx context.Context, cfg config.Config, bus *i2c.Handle) error {
			if err := newSpectrometer(cfg, bus).Disable(ctx); err != nil {
				return console.Fail("device communication error", err)
			}
			console.PInfof(console.PictoStop, "spectrometer powered off")
			return nil
		})
	},
}
