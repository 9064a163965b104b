package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mklimuk/hegemone"
	"github.com/mklimuk/hegemone/environment"
	"github.com/mklimuk/hegemone/onewire"
	"github.com/mklimuk/hegemone/pkg/config"
	"github.com/mklimuk/hegemone/report"
	"github.com/mklimuk/hegemone/spectral"
)

func newSoil(cfg config.Config, bus hegemone.I2CBus) *environment.Soil {
	return environment.NewSoil(bus,
		environment.WithSoilSettleDelay(cfg.Soil.SettleDelay.Std()),
		environment.WithSoilReadDelay(cfg.Soil.ReadDelay.Std()),
		environment.WithMoistureAttempts(cfg.Soil.MoistureAttempts),
	)
}

func newLight(cfg config.Config, bus hegemone.I2CBus) *environment.VEML7700 {
	return environment.NewVEML7700(bus,
		environment.WithLightSettleDelay(cfg.Light.SettleDelay.Std()),
	)
}

func newSpectrometer(cfg config.Config, bus hegemone.I2CBus) *spectral.AS7341 {
	return spectral.NewAS7341(bus,
		spectral.WithPollInterval(cfg.Spectral.PollInterval.Std()),
		spectral.WithSmuxSettleDelay(cfg.Spectral.SmuxSettleDelay.Std()),
		spectral.WithPollTimeout(cfg.Spectral.PollTimeout.Std()),
	)
}

func newThermometer(cfg config.Config) *onewire.DS18B20 {
	return onewire.NewDS18B20(cfg.OneWire.MasterDir, cfg.OneWire.DeviceID)
}

// newCollector builds and configures every enabled sensor.
func newCollector(ctx context.Context, cfg config.Config, bus hegemone.I2CBus) (*report.Collector, error) {
	opts := []report.CollectorOpt{report.WithDeviceID(cfg.DeviceID)}
	if cfg.Soil.Enabled {
		opts = append(opts, report.WithSoil(newSoil(cfg, bus)))
	}
	if cfg.Light.Enabled {
		light := newLight(cfg, bus)
		if err := light.Configure(ctx); err != nil {
			return nil, fmt.Errorf("could not configure light sensor: %w", err)
		}
		opts = append(opts, report.WithLight(light))
	}
	if cfg.Spectral.Enabled {
		spectro := newSpectrometer(cfg, bus)
		if err := spectro.Configure(ctx); err != nil {
			return nil, fmt.Errorf("could not configure spectrometer: %w", err)
		}
		opts = append(opts, report.WithSpectrometer(spectro))
	}
	if cfg.OneWire.Enabled {
		opts = append(opts, report.WithThermometer(newThermometer(cfg)))
	}
	return report.NewCollector(opts...), nil
}

// newSimulatedCollector replaces every sensor with a mock following a slow
// daily cycle, for running the pipeline without hardware.
func newSimulatedCollector(cfg config.Config) *report.Collector {
	daylight := func() float64 {
		h := float64(time.Now().Hour()) + float64(time.Now().Minute())/60
		return math.Max(0, math.Sin((h-6)/12*math.Pi))
	}
	moisture := 900
	return report.NewCollector(
		report.WithDeviceID(cfg.DeviceID),
		report.WithSoil(environment.NewMockSoilSensor(
			func(ctx context.Context) (int, error) {
				if moisture > 300 {
					moisture--
				}
				return moisture, nil
			},
			func(ctx context.Context) (float64, error) { return 16 + 4*daylight(), nil },
		)),
		report.WithLight(environment.NewMockLightSensor(func(ctx context.Context) (int, error) {
			return int(20000 * daylight()), nil
		})),
		report.WithSpectrometer(spectral.NewMockSpectrometer(func(ctx context.Context) (spectral.Reading, error) {
			base := spectral.Reading{120, 340, 560, 780, 900, 870, 650, 420, 210, 4000}
			var r spectral.Reading
			for i, v := range base {
				r[i] = uint16(float64(v) * daylight())
			}
			return r, nil
		})),
		report.WithThermometer(environment.NewMockThermometer(func(ctx context.Context) (float64, error) {
			return 18 + 6*daylight(), nil
		})),
	)
}
