package onewire

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDS18B20_ReadTemperature(t *testing.T) {
	tests := []struct {
		name     string
		given    string
		expected float64
		err      error
	}{
		{
			name:     "valid",
			given:    "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n72 01 4b 46 7f ff 0e 10 57 t=23125\n",
			expected: 23.125,
		},
		{
			name:     "below zero",
			given:    "5e ff 4b 46 7f ff 02 10 1a : crc=1a YES\n5e ff 4b 46 7f ff 02 10 1a t=-10125\n",
			expected: -10.125,
		},
		{
			name:  "crc failure",
			given: "72 01 4b 46 7f ff 0e 10 57 : crc=00 NO\n72 01 4b 46 7f ff 0e 10 57 t=23125\n",
			err:   ErrCRC,
		},
		{
			name:  "missing value",
			given: "72 01 4b 46 7f ff 0e 10 57 : crc=57 YES\n",
			err:   ErrNoReading,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{
				DefaultDeviceID + "/w1_slave": &fstest.MapFile{Data: []byte(tt.given)},
			}
			temp, err := NewDS18B20FS(fsys, DefaultDeviceID).ReadTemperature(context.Background())
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Zero(t, temp)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, temp, 0.0001)
		})
	}
}

func TestDS18B20_Missing(t *testing.T) {
	_, err := NewDS18B20FS(fstest.MapFS{}, DefaultDeviceID).ReadTemperature(context.Background())
	assert.Error(t, err)
}

func TestProbes(t *testing.T) {
	fsys := fstest.MapFS{
		"28-0033c3000096/w1_slave": &fstest.MapFile{},
		"28-00000a1b2c3d/w1_slave": &fstest.MapFile{},
		"w1_master_slaves":         &fstest.MapFile{},
	}
	ids, err := Probes(fsys)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"28-0033c3000096", "28-00000a1b2c3d"}, ids)
}
