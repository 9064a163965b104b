package environment

import (
	"context"
	"fmt"

	"github.com/mklimuk/hegemone"
)

// MoistureBehaviorFunc returns a raw moisture count or an error.
type MoistureBehaviorFunc func(ctx context.Context) (int, error)

// MockSoilSensor is a soil probe whose moisture and temperature come from
// behavior functions instead of the seesaw chip.
//
// Example usage:
//
//	moisture := 600
//	sensor := NewMockSoilSensor(
//		func(ctx context.Context) (int, error) { moisture -= 5; return moisture, nil },
//		func(ctx context.Context) (float64, error) { return 18.0, nil },
//	)
type MockSoilSensor struct {
	moistureBehavior MoistureBehaviorFunc
	tempBehavior     TemperatureBehaviorFunc
}

func NewMockSoilSensor(moistureBehavior MoistureBehaviorFunc, tempBehavior TemperatureBehaviorFunc) *MockSoilSensor {
	return &MockSoilSensor{
		moistureBehavior: moistureBehavior,
		tempBehavior:     tempBehavior,
	}
}

// ReadMoisture calls the moisture behavior. Values above MoistureMax are
// reported as out of range the same way the real driver does after its retries.
func (m *MockSoilSensor) ReadMoisture(ctx context.Context) (int, error) {
	val, err := m.moistureBehavior(ctx)
	if err != nil {
		return 0, err
	}
	if val < 0 || val > MoistureMax {
		return 0, errMockOutOfRange(val)
	}
	return val, nil
}

func (m *MockSoilSensor) ReadTemperature(ctx context.Context) (float64, error) {
	return m.tempBehavior(ctx)
}

func errMockOutOfRange(val int) error {
	return fmt.Errorf("soil: mock moisture %d outside 0..%d: %w", val, MoistureMax, hegemone.ErrOutOfRange)
}
