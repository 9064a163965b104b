package environment

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLightSensor_DaylightCycle(t *testing.T) {
	hourOfDay := 0
	sensor := NewMockLightSensor(func(ctx context.Context) (int, error) {
		switch {
		case hourOfDay >= 6 && hourOfDay < 8: // dawn
			return 250, nil
		case hourOfDay >= 8 && hourOfDay < 18:
			return 10000, nil
		case hourOfDay >= 18 && hourOfDay < 20: // dusk
			return 250, nil
		default:
			return 10, nil
		}
	})
	ctx := context.Background()
	require.NoError(t, sensor.Configure(ctx))

	testCases := []struct {
		hour     int
		expected int
	}{
		{0, 10},
		{7, 250},
		{12, 10000},
		{19, 250},
		{23, 10},
	}
	for _, tc := range testCases {
		hourOfDay = tc.hour
		white, err := sensor.ReadWhite(ctx)
		require.NoError(t, err, "hour %d", tc.hour)
		assert.Equal(t, tc.expected, white, "hour %d", tc.hour)
	}
}

func TestMockLightSensor_Error(t *testing.T) {
	sensor := NewMockLightSensor(func(ctx context.Context) (int, error) {
		return 0, fmt.Errorf("sensor malfunction")
	})
	_, err := sensor.ReadWhite(context.Background())
	assert.EqualError(t, err, "sensor malfunction")
}

func TestMockThermometer_ContextUsage(t *testing.T) {
	var receivedCtx context.Context
	probe := NewMockThermometer(func(ctx context.Context) (float64, error) {
		receivedCtx = ctx
		return 21.5, nil
	})

	type contextKey string
	key := contextKey("test")
	ctx := context.WithValue(context.Background(), key, "test-value")

	temp, err := probe.ReadTemperature(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21.5, temp)
	assert.Equal(t, "test-value", receivedCtx.Value(key))
}
