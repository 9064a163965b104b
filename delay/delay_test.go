package delay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleepers_WaitAtLeastRequested(t *testing.T) {
	tests := []struct {
		name    string
		sleeper Sleeper
		wait    time.Duration
	}{
		{"spin", Spin{}, 300 * time.Microsecond},
		{"yield", Yield{}, 5 * time.Millisecond},
		{"hybrid spinning", Hybrid{Threshold: time.Millisecond}, 400 * time.Microsecond},
		{"hybrid yielding", Hybrid{Threshold: time.Millisecond}, 3 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			tt.sleeper.Sleep(tt.wait)
			assert.GreaterOrEqual(t, time.Since(start), tt.wait)
		})
	}
}

func TestSleepers_NonPositiveReturnsImmediately(t *testing.T) {
	for _, s := range []Sleeper{Spin{}, Yield{}, Default()} {
		start := time.Now()
		s.Sleep(0)
		s.Sleep(-time.Second)
		assert.Less(t, time.Since(start), 50*time.Millisecond)
	}
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Sleep(400 * time.Microsecond)
	rec.Sleep(time.Millisecond)
	assert.Equal(t, []time.Duration{400 * time.Microsecond, time.Millisecond}, rec.Calls())
	assert.Equal(t, 1400*time.Microsecond, rec.Total())
}

func TestSleeperFunc(t *testing.T) {
	var got time.Duration
	var s Sleeper = SleeperFunc(func(d time.Duration) { got = d })
	s.Sleep(25 * time.Millisecond)
	assert.Equal(t, 25*time.Millisecond, got)
}
