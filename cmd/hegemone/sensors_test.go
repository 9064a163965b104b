package main

import (
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hegemone/environment"
	"github.com/mklimuk/hegemone/pkg/config"
	"github.com/mklimuk/hegemone/selftest"
)

func TestSimulatedCollector(t *testing.T) {
	cfg := config.Default()
	cfg.DeviceID = "bench"
	c := newSimulatedCollector(cfg)
	first, err := c.Collect(context.Background())
	require.NoError(t, err)
	second, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "bench", first.DeviceID)
	assert.LessOrEqual(t, first.MoistureLevel, environment.MoistureMax)
	assert.Equal(t, first.MoistureLevel-1, second.MoistureLevel, "soil dries out one count per cycle")
	assert.Equal(t, first.Light.Red/2, first.Light.FarRed)
}

func TestSelfTestChecksMockAdapter(t *testing.T) {
	c := cli.NewContext(cli.NewApp(), flag.NewFlagSet("test", flag.ContinueOnError), nil)
	cfg := config.Default()
	cfg.I2C.Adapter = config.AdapterMock
	cfg.Sinks.File.Path = filepath.Join(t.TempDir(), "data.dmp")

	checks := selfTestChecks(c, cfg)
	require.Len(t, checks, 1)
	assert.Equal(t, "data log", checks[0].Name)

	outcomes, err := selftest.Run(context.Background(), checks...)
	require.NoError(t, err)
	assert.True(t, outcomes[0].Passed)
}

func TestSelfTestChecksLinuxAdapter(t *testing.T) {
	c := cli.NewContext(cli.NewApp(), flag.NewFlagSet("test", flag.ContinueOnError), nil)
	cfg := config.Default()
	cfg.Sinks.File.Path = ""

	var names []string
	for _, check := range selfTestChecks(c, cfg) {
		names = append(names, check.Name)
	}
	assert.Equal(t, []string{"i2c", "1-wire"}, names)
}
