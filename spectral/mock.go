package spectral

import (
	"context"
)

// FluxBehaviorFunc produces a full reading or an error.
type FluxBehaviorFunc func(ctx context.Context) (Reading, error)

// MockSpectrometer replaces the AS7341 when no hardware is attached.
//
// Example usage:
//
//	sensor := NewMockSpectrometer(func(ctx context.Context) (Reading, error) {
//		return Reading{120, 340, 560, 780, 900, 870, 650, 420, 210, 4000}, nil
//	})
type MockSpectrometer struct {
	behavior FluxBehaviorFunc
}

func NewMockSpectrometer(behavior FluxBehaviorFunc) *MockSpectrometer {
	return &MockSpectrometer{behavior: behavior}
}

// Configure does nothing.
func (m *MockSpectrometer) Configure(ctx context.Context) error {
	return nil
}

func (m *MockSpectrometer) PhotonFlux(ctx context.Context) (Reading, error) {
	return m.behavior(ctx)
}
