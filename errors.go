package hegemone

import (
	"errors"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

var (
	ErrIOFailure               = errors.New("i2c i/o failure")
	ErrOutOfRange              = errors.New("reading out of range")
	ErrNotReady                = errors.New("measurement not ready")
	ErrConfigurationIncomplete = errors.New("configuration incomplete")
	ErrTimeout                 = errors.New("timed out")
	ErrRetriesExhausted        = errors.New("retries exhausted")
	ErrBufferOverflow          = errors.New("buffer overflow")
)

// IOError reports a failed transfer on the bus. It matches ErrIOFailure.
type IOError struct {
	Addr byte
	Op   string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i2c %s at %#02x failed: %v", e.Op, e.Addr, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIOFailure
}
