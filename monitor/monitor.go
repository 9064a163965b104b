// Package monitor runs the collect and submit cycle at a fixed cadence.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mklimuk/hegemone/report"
)

const DefaultInterval = time.Second

type Collector interface {
	Collect(ctx context.Context) (report.Reading, error)
}

type Submitter interface {
	Submit(ctx context.Context, r report.Reading) error
}

type Opts struct {
	Interval time.Duration
	// CycleTimeout bounds one collect and submit cycle; zero means no bound.
	CycleTimeout time.Duration
	// OnCycle, if set, is called after every cycle.
	OnCycle func(r report.Reading, collectErr, submitErr error)
}

type Opt func(*Opts)

func WithInterval(d time.Duration) Opt {
	return func(o *Opts) {
		o.Interval = d
	}
}

func WithCycleTimeout(d time.Duration) Opt {
	return func(o *Opts) {
		o.CycleTimeout = d
	}
}

func WithCycleHook(fn func(r report.Reading, collectErr, submitErr error)) Opt {
	return func(o *Opts) {
		o.OnCycle = fn
	}
}

// Monitor collects a reading and hands it to the submitter every interval.
// A cycle that takes longer than the interval delays the next one instead of
// overlapping it.
type Monitor struct {
	config    Opts
	collector Collector
	submitter Submitter
	cycles    atomic.Uint64
	failures  atomic.Uint64
}

func New(collector Collector, submitter Submitter, opts ...Opt) *Monitor {
	config := Opts{
		Interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Monitor{config: config, collector: collector, submitter: submitter}
}

// Tick runs a single cycle. Collection errors do not prevent submission of
// the partial reading.
func (m *Monitor) Tick(ctx context.Context) error {
	if m.config.CycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.config.CycleTimeout)
		defer cancel()
	}
	m.cycles.Add(1)
	r, collectErr := m.collector.Collect(ctx)
	if collectErr != nil {
		m.failures.Add(1)
		slog.Warn("reading incomplete", "error", collectErr)
	}
	submitErr := m.submitter.Submit(ctx, r)
	if m.config.OnCycle != nil {
		m.config.OnCycle(r, collectErr, submitErr)
	}
	if submitErr != nil {
		return fmt.Errorf("could not submit reading: %w", submitErr)
	}
	return nil
}

// Run schedules Tick until ctx is done. The first cycle starts immediately.
func (m *Monitor) Run(ctx context.Context) error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("could not create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(m.config.Interval),
		gocron.NewTask(func() {
			if err := m.Tick(ctx); err != nil {
				slog.Error("monitor cycle failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithName("collect"),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("could not schedule collection: %w", err)
	}
	slog.Info("monitor started", "interval", m.config.Interval)
	s.Start()
	<-ctx.Done()
	if err := s.Shutdown(); err != nil {
		return fmt.Errorf("could not stop scheduler: %w", err)
	}
	slog.Info("monitor stopped", "cycles", m.Cycles(), "incomplete", m.Failures())
	return nil
}

// Cycles is the number of cycles started so far.
func (m *Monitor) Cycles() uint64 {
	return m.cycles.Load()
}

// Failures counts cycles with an incomplete reading.
func (m *Monitor) Failures() uint64 {
	return m.failures.Load()
}
