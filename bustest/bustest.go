// Package bustest provides a scriptable in-memory I2C bus for driver tests.
// Unlike i2ctest.Playback it does not require the exact transcript upfront:
// every address is served by a Responder and all transfers are recorded.
package bustest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

var ErrNoDevice = errors.New("no device at address")

var _ i2c.Bus = &Bus{}

// Responder serves one transfer addressed to a device. w is the write phase and
// r the buffer of the read phase; either may be empty.
type Responder func(w, r []byte) error

type Bus struct {
	// Latency is added to every transfer so overlapping transfers become observable.
	Latency time.Duration

	mx          sync.Mutex
	devices     map[uint16]Responder
	ops         []i2ctest.IO
	inFlight    int64
	maxInFlight int64
}

func New() *Bus {
	return &Bus{devices: make(map[uint16]Responder)}
}

// Attach registers the responder serving addr.
func (b *Bus) Attach(addr uint16, r Responder) *Bus {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.devices[addr] = r
	return b
}

func (b *Bus) String() string {
	return "bustest"
}

func (b *Bus) SetSpeed(physic.Frequency) error {
	return nil
}

func (b *Bus) Tx(addr uint16, w, r []byte) error {
	n := atomic.AddInt64(&b.inFlight, 1)
	defer atomic.AddInt64(&b.inFlight, -1)
	for {
		peak := atomic.LoadInt64(&b.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt64(&b.maxInFlight, peak, n) {
			break
		}
	}
	if b.Latency > 0 {
		time.Sleep(b.Latency)
	}

	b.mx.Lock()
	dev, ok := b.devices[addr]
	b.mx.Unlock()
	if !ok {
		return fmt.Errorf("%w %#x", ErrNoDevice, addr)
	}
	err := dev(w, r)

	io := i2ctest.IO{Addr: addr}
	if len(w) > 0 {
		io.W = append([]byte(nil), w...)
	}
	if len(r) > 0 && err == nil {
		io.R = append([]byte(nil), r...)
	}
	b.mx.Lock()
	b.ops = append(b.ops, io)
	b.mx.Unlock()
	return err
}

// Ops returns every transfer seen so far, failed ones included, in bus order.
func (b *Bus) Ops() []i2ctest.IO {
	b.mx.Lock()
	defer b.mx.Unlock()
	out := make([]i2ctest.IO, len(b.ops))
	copy(out, b.ops)
	return out
}

// MaxInFlight is the highest number of transfers observed running at once.
func (b *Bus) MaxInFlight() int {
	return int(atomic.LoadInt64(&b.maxInFlight))
}

// Reply is one scripted answer to a read.
type Reply struct {
	Data []byte
	Err  error
}

// Script accepts all writes and answers reads with replies in order. Once the
// replies run out the last one is repeated.
func Script(replies ...Reply) Responder {
	var mx sync.Mutex
	next := 0
	return func(w, r []byte) error {
		if len(r) == 0 {
			return nil
		}
		mx.Lock()
		defer mx.Unlock()
		if len(replies) == 0 {
			return fmt.Errorf("bustest: no scripted reply")
		}
		reply := replies[next]
		if next < len(replies)-1 {
			next++
		}
		if reply.Err != nil {
			return reply.Err
		}
		copy(r, reply.Data)
		return nil
	}
}

// Fail answers every transfer with err.
func Fail(err error) Responder {
	return func(w, r []byte) error {
		return err
	}
}

// FailReads accepts writes and fails every read with err.
func FailReads(err error) Responder {
	return func(w, r []byte) error {
		if len(r) > 0 {
			return err
		}
		return nil
	}
}
