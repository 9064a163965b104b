package i2c

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mklimuk/hegemone"
	"github.com/mklimuk/hegemone/snsctx"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultDevice is the adapter most single board computers expose on the header.
const DefaultDevice = "/dev/i2c-1"

var _ hegemone.I2CBus = &Handle{}

// Handle gives exclusive access to one physical I2C adapter. Every transfer, on
// behalf of any driver, goes through its lock: at most one transaction is in
// flight and the device select always immediately precedes the transfer.
type Handle struct {
	mx  sync.Mutex
	bus i2c.Bus
}

// Open initializes the host drivers and opens the Linux i2c-dev adapter at dev.
func Open(dev string) (*Handle, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return New(bus), nil
}

// New wraps an already opened bus.
func New(bus i2c.Bus) *Handle {
	return &Handle{bus: bus}
}

func (h *Handle) String() string {
	return h.bus.String()
}

// Session takes the bus lock, selects address and runs fn. The lock is held
// until fn returns. ctx is only consulted before the bus is taken.
func (h *Handle) Session(ctx context.Context, address byte, fn func(c hegemone.Conn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.mx.Lock()
	defer h.mx.Unlock()
	return fn(&conn{bus: h.bus, addr: address, verbose: snsctx.IsVerbose(ctx)})
}

func (h *Handle) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return h.Session(ctx, address, func(c hegemone.Conn) error {
		return c.Write(buffer)
	})
}

func (h *Handle) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return h.Session(ctx, address, func(c hegemone.Conn) error {
		return c.Read(buffer)
	})
}

func (h *Handle) TxToAddr(ctx context.Context, address byte, w, r []byte) error {
	return h.Session(ctx, address, func(c hegemone.Conn) error {
		return c.Tx(w, r)
	})
}

// Release asks the underlying adapter to free the bus if it supports it.
func (h *Handle) Release(ctx context.Context) error {
	rel, ok := h.bus.(interface {
		Release(ctx context.Context) error
	})
	if !ok {
		return nil
	}
	h.mx.Lock()
	defer h.mx.Unlock()
	return rel.Release(ctx)
}

func (h *Handle) SetSpeed(f physic.Frequency) error {
	h.mx.Lock()
	defer h.mx.Unlock()
	return h.bus.SetSpeed(f)
}

func (h *Handle) Close() error {
	h.mx.Lock()
	defer h.mx.Unlock()
	if c, ok := h.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type conn struct {
	bus     i2c.Bus
	addr    byte
	verbose bool
}

func (c *conn) Write(buffer []byte) error {
	return c.tx("write", buffer, nil)
}

func (c *conn) Read(buffer []byte) error {
	return c.tx("read", nil, buffer)
}

func (c *conn) Tx(w, r []byte) error {
	return c.tx("composite", w, r)
}

func (c *conn) tx(op string, w, r []byte) error {
	if c.verbose && len(w) > 0 {
		slog.Debug("i2c write", "addr", fmt.Sprintf("%#02x", c.addr), "op", op, "data", hex.EncodeToString(w))
	}
	err := c.bus.Tx(uint16(c.addr), w, r)
	if err != nil {
		return &hegemone.IOError{Addr: c.addr, Op: op, Err: err}
	}
	if c.verbose && len(r) > 0 {
		slog.Debug("i2c read", "addr", fmt.Sprintf("%#02x", c.addr), "op", op, "data", hex.EncodeToString(r))
	}
	return nil
}
