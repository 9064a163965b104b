package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/hegemone/adapter"
	"github.com/mklimuk/hegemone/cmd/hegemone/console"
	"github.com/mklimuk/hegemone/i2c"
	"github.com/mklimuk/hegemone/pkg/config"
)

func newContext(c *cli.Context) context.Context {
	return console.SetVerbose(c.Context, c.Bool("verbose"))
}

// loadConfig reads the file given with --config, or the default path if it
// exists, and applies the global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	path := c.String("config")
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			path = config.DefaultPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("could not access %s: %w", config.DefaultPath, err)
		}
	}
	if path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if c.IsSet("adapter") {
		cfg.I2C.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.I2C.Device = c.String("device")
	}
	return cfg, cfg.Validate()
}

// openBus opens the configured adapter. The returned function releases it.
func openBus(c *cli.Context, cfg config.Config) (*i2c.Handle, func() error, error) {
	var h *i2c.Handle
	closeFn := func() error { return nil }
	switch cfg.I2C.Adapter {
	case config.AdapterLinux:
		var err error
		h, err = i2c.Open(cfg.I2C.Device)
		if err != nil {
			return nil, nil, err
		}
		closeFn = h.Close
	case config.AdapterMCP2221:
		mcp := adapter.NewMCP2221(cfg.I2C.MCP2221Index)
		mcp.Verbose = c.Bool("verbose")
		h = i2c.New(mcp)
	case config.AdapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, c.Int("bus"))
		h = i2c.New(bus)
		closeFn = func() error {
			err := h.Close()
			if ferr := npi.I2cBusAdaptor.Finalize(); ferr != nil && err == nil {
				err = ferr
			}
			return err
		}
	default:
		return nil, nil, fmt.Errorf("adapter %q has no bus", cfg.I2C.Adapter)
	}
	if cfg.I2C.SpeedKHz > 0 && cfg.I2C.Adapter != config.AdapterNanoPi {
		if err := h.SetSpeed(physic.Frequency(cfg.I2C.SpeedKHz) * physic.KiloHertz); err != nil {
			console.Warnf("could not set bus speed: %s", err)
		}
	}
	return h, closeFn, nil
}

// withBus opens the bus for the duration of fn.
func withBus(c *cli.Context, fn func(ctx context.Context, cfg config.Config, bus *i2c.Handle) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return console.Fail("configuration error", err)
	}
	bus, closeBus, err := openBus(c, cfg)
	if err != nil {
		return console.Fail("adapter initialization error", err)
	}
	defer func() {
		if err := closeBus(); err != nil {
			console.Errorf("error closing bus: %s", console.Red(err))
		}
	}()
	return fn(newContext(c), cfg, bus)
}
