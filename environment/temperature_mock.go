package environment

import (
	"context"
)

// TemperatureBehaviorFunc returns a temperature in degrees Celsius or an error.
type TemperatureBehaviorFunc func(ctx context.Context) (float64, error)

// MockThermometer is a temperature-only sensor driven by a behavior function.
// It can replace the 1-Wire probe when no w1 bus is present.
type MockThermometer struct {
	behavior TemperatureBehaviorFunc
}

// NewMockThermometer creates a mock calling behavior on every ReadTemperature.
//
// Example usage:
//
//	probe := NewMockThermometer(func(ctx context.Context) (float64, error) { return 21.5, nil })
func NewMockThermometer(behavior TemperatureBehaviorFunc) *MockThermometer {
	return &MockThermometer{behavior: behavior}
}

func (m *MockThermometer) ReadTemperature(ctx context.Context) (float64, error) {
	return m.behavior(ctx)
}
