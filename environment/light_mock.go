package environment

import (
	"context"
)

// LightBehaviorFunc produces a raw white channel count or an error.
type LightBehaviorFunc func(ctx context.Context) (int, error)

// MockLightSensor stands in for a VEML7700 without any hardware.
//
// Example usage:
//
//	// Daylight
//	sensor := NewMockLightSensor(func(ctx context.Context) (int, error) {
//		return 12000, nil
//	})
//
//	// Error simulation
//	sensor := NewMockLightSensor(func(ctx context.Context) (int, error) {
//		return 0, fmt.Errorf("sensor malfunction")
//	})
type MockLightSensor struct {
	behavior LightBehaviorFunc
}

func NewMockLightSensor(behavior LightBehaviorFunc) *MockLightSensor {
	return &MockLightSensor{
		behavior: behavior,
	}
}

// Configure does nothing.
func (m *MockLightSensor) Configure(ctx context.Context) error {
	return nil
}

// ReadWhite returns the count by calling the behavior function.
func (m *MockLightSensor) ReadWhite(ctx context.Context) (int, error) {
	return m.behavior(ctx)
}
