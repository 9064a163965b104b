package main

import (
	"errors"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hegemone/cmd/hegemone/console"
	"github.com/mklimuk/hegemone/pkg/config"
	"github.com/mklimuk/hegemone/selftest"
)

func selfTestChecks(c *cli.Context, cfg config.Config) []selftest.Check {
	var checks []selftest.Check
	switch cfg.I2C.Adapter {
	case config.AdapterMock:
	case config.AdapterLinux:
		checks = append(checks, selftest.I2CAdapter(cfg.I2C.Device))
	default:
		checks = append(checks, selftest.I2CBus(func() (func() error, error) {
			_, closeFn, err := openBus(c, cfg)
			return closeFn, err
		}))
	}
	if cfg.OneWire.Enabled && cfg.I2C.Adapter != config.AdapterMock {
		checks = append(checks, selftest.OneWire(cfg.OneWire.MasterDir))
	}
	if cfg.Sinks.File.Path != "" {
		checks = append(checks, selftest.DataLog(cfg.Sinks.File.Path))
	}
	return checks
}

var selftestCmd = cli.Command{
	Name:  "selftest",
	Usage: "verify the i2c adapter, the 1-Wire bus and the data log",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail("configuration error", err)
		}
		outcomes, err := selftest.Run(newContext(c), selfTestChecks(c, cfg)...)
		for _, o := range outcomes {
			var failure error
			if !o.Passed {
				failure = errors.New(o.Error)
			}
			console.Check(o.Name, failure)
		}
		if err != nil {
			return console.Exit(1, "self test failed")
		}
		console.PInfof(console.PictoFinish, "all checks passed")
		return nil
	},
}
