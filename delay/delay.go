// Package delay provides the settle and conversion waits used between register
// accesses. Sub-millisecond waits are usually better served by spinning, while
// longer ones should give the processor back.
package delay

import (
	"sync"
	"time"
)

// DefaultSpinThreshold is the wait below which Hybrid spins instead of sleeping.
const DefaultSpinThreshold = time.Millisecond

type Sleeper interface {
	Sleep(d time.Duration)
}

// SleeperFunc adapts a function to the Sleeper interface.
type SleeperFunc func(d time.Duration)

func (f SleeperFunc) Sleep(d time.Duration) {
	f(d)
}

// Spin busy-waits on the monotonic clock.
type Spin struct{}

func (Spin) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// Yield suspends the calling goroutine.
type Yield struct{}

func (Yield) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// Hybrid spins for waits shorter than Threshold and yields otherwise.
type Hybrid struct {
	Threshold time.Duration
}

func (h Hybrid) Sleep(d time.Duration) {
	if d < h.Threshold {
		Spin{}.Sleep(d)
		return
	}
	Yield{}.Sleep(d)
}

// Default returns the sleeper used by drivers when none is configured.
func Default() Sleeper {
	return Hybrid{Threshold: DefaultSpinThreshold}
}

// Recorder does not wait at all; it records the requested durations.
type Recorder struct {
	mx    sync.Mutex
	calls []time.Duration
}

func (r *Recorder) Sleep(d time.Duration) {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.calls = append(r.calls, d)
}

func (r *Recorder) Calls() []time.Duration {
	r.mx.Lock()
	defer r.mx.Unlock()
	out := make([]time.Duration, len(r.calls))
	copy(out, r.calls)
	return out
}

// Total returns the sum of all recorded waits.
func (r *Recorder) Total() time.Duration {
	var total time.Duration
	for _, d := range r.Calls() {
		total += d
	}
	return total
}
