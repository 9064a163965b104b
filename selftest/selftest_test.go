package selftest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestRun_AllChecksRun(t *testing.T) {
	ran := 0
	ok := Check{Name: "ok", Run: func(ctx context.Context) error { ran++; return nil }}
	bad := Check{Name: "bad", Run: func(ctx context.Context) error { ran++; return errors.New("broken") }}

	outcomes, err := Run(context.Background(), bad, ok, bad)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, 3, ran)
	require.Len(t, outcomes, 3)
	assert.False(t, outcomes[0].Passed)
	assert.Equal(t, "broken", outcomes[0].Error)
	assert.True(t, outcomes[1].Passed)
}

func TestOneWire(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, OneWire(dir).Run(context.Background()))
	assert.Error(t, OneWire(filepath.Join(dir, "missing")).Run(context.Background()))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.ErrorContains(t, OneWire(file).Run(context.Background()), "not a directory")
}

func TestDataLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hegemone-data.dmp")
	require.NoError(t, DataLog(path).Run(context.Background()))
	_, err := os.Stat(path)
	assert.NoError(t, err)

	assert.Error(t, DataLog(filepath.Join(t.TempDir(), "missing", "data.dmp")).Run(context.Background()))
}

func TestI2CAdapter_NotADevice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "i2c-1")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.ErrorContains(t, I2CAdapter(path).Run(context.Background()), "not a device")
	assert.Error(t, I2CAdapter(path+"-missing").Run(context.Background()))
}

func TestI2CBus(t *testing.T) {
	closed := false
	check := I2CBus(func() (func() error, error) {
		return func() error { closed = true; return nil }, nil
	})
	require.NoError(t, check.Run(context.Background()))
	assert.True(t, closed)

	failing := I2CBus(func() (func() error, error) { return nil, errors.New("no adapter") })
	assert.EqualError(t, failing.Run(context.Background()), "no adapter")
}
