// Package selftest verifies that the host provides everything the monitor needs
// before any sensor is touched.
package selftest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"go.uber.org/multierr"
)

// Check is one named verification.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

// Outcome is the result of one check.
type Outcome struct {
	Name     string        `json:"name" yaml:"name"`
	Passed   bool          `json:"passed" yaml:"passed"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Run executes all checks, even after a failure, and reports every outcome.
// The returned error combines all failures.
func Run(ctx context.Context, checks ...Check) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(checks))
	var err error
	for _, c := range checks {
		start := time.Now()
		e := c.Run(ctx)
		o := Outcome{Name: c.Name, Passed: e == nil, Duration: time.Since(start)}
		if e != nil {
			o.Error = e.Error()
			err = multierr.Append(err, fmt.Errorf("%s: %w", c.Name, e))
		}
		slog.Info("self test", "check", c.Name, "passed", o.Passed, "error", o.Error)
		outcomes = append(outcomes, o)
	}
	return outcomes, err
}

// I2CAdapter verifies that the i2c-dev node exists and can be opened for
// reading and writing.
func I2CAdapter(path string) Check {
	return Check{
		Name: "i2c",
		Run: func(ctx context.Context) error {
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if info.Mode()&fs.ModeDevice == 0 {
				return fmt.Errorf("%s is not a device", path)
			}
			f, err := os.OpenFile(path, os.O_RDWR, 0)
			if err != nil {
				return err
			}
			return f.Close()
		},
	}
}

// I2CBus runs open, typically a function opening the configured adapter, and
// closes the result.
func I2CBus(open func() (func() error, error)) Check {
	return Check{
		Name: "i2c",
		Run: func(ctx context.Context) error {
			closeFn, err := open()
			if err != nil {
				return err
			}
			return closeFn()
		},
	}
}

// OneWire verifies that the w1 bus master directory exists and is readable.
func OneWire(dir string) Check {
	return Check{
		Name: "1-wire",
		Run: func(ctx context.Context) error {
			info, err := os.Stat(dir)
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			_, err = os.ReadDir(dir)
			return err
		},
	}
}

// DataLog creates the data file if needed and verifies it is readable and writable.
func DataLog(path string) Check {
	return Check{
		Name: "data log",
		Run: func(ctx context.Context) error {
			f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
			if err != nil {
				return err
			}
			return f.Close()
		},
	}
}
