// Package sink delivers combined readings to their consumers.
package sink

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.uber.org/multierr"

	"github.com/mklimuk/hegemone/report"
)

// Sink consumes readings. Submit must not keep r after returning.
type Sink interface {
	Name() string
	Submit(ctx context.Context, r report.Reading) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, r report.Reading) error

func (f Func) Name() string {
	return "func"
}

func (f Func) Submit(ctx context.Context, r report.Reading) error {
	return f(ctx, r)
}

// Submitter fans a reading out to every registered sink.
type Submitter struct {
	mx    sync.RWMutex
	sinks []Sink
}

func NewSubmitter(sinks ...Sink) *Submitter {
	return &Submitter{sinks: sinks}
}

func (s *Submitter) Register(sink Sink) {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.sinks = append(s.sinks, sink)
}

func (s *Submitter) Sinks() []Sink {
	s.mx.RLock()
	defer s.mx.RUnlock()
	out := make([]Sink, len(s.sinks))
	copy(out, s.sinks)
	return out
}

// Submit delivers r to all sinks in registration order. A failing sink does
// not prevent delivery to the others.
func (s *Submitter) Submit(ctx context.Context, r report.Reading) error {
	var err error
	for _, sink := range s.Sinks() {
		if e := sink.Submit(ctx, r); e != nil {
			slog.Warn("could not submit reading", "sink", sink.Name(), "error", e)
			err = multierr.Append(err, fmt.Errorf("%s: %w", sink.Name(), e))
		}
	}
	return err
}

// Close closes every sink holding resources.
func (s *Submitter) Close() error {
	var err error
	for _, sink := range s.Sinks() {
		if c, ok := sink.(io.Closer); ok {
			err = multierr.Append(err, c.Close())
		}
	}
	return err
}
