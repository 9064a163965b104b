package i2c

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	gobotI2C "gobot.io/x/gobot/v2/drivers/i2c"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

var _ i2c.BusCloser = &GobotBus{}

var ErrUnsupportedTransfer = errors.New("transfer not supported by adaptor")

// GobotBus exposes the I2C connections of a gobot adaptor (e.g. NanoPi) as a
// periph bus. Composite transfers are limited to a single register byte
// followed by a block read, which gobot issues as one combined transaction.
type GobotBus struct {
	mx        sync.Mutex
	connector gobotI2C.Connector
	busNr     int
	conns     map[uint16]gobotI2C.Connection
}

func NewGobotBus(connector gobotI2C.Connector, busNr int) *GobotBus {
	return &GobotBus{
		connector: connector,
		busNr:     busNr,
		conns:     make(map[uint16]gobotI2C.Connection),
	}
}

func (b *GobotBus) String() string {
	return fmt.Sprintf("gobot-i2c-%d", b.busNr)
}

func (b *GobotBus) Tx(addr uint16, w, r []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	c, err := b.conn(addr)
	if err != nil {
		return err
	}
	switch {
	case len(r) == 0:
		_, err = c.Write(w)
	case len(w) == 0:
		_, err = c.Read(r)
	case len(w) == 1:
		err = c.ReadBlockData(w[0], r)
	default:
		return fmt.Errorf("%d byte write phase before read: %w", len(w), ErrUnsupportedTransfer)
	}
	return err
}

func (b *GobotBus) SetSpeed(f physic.Frequency) error {
	return fmt.Errorf("set speed %s: %w", f, ErrUnsupportedTransfer)
}

func (b *GobotBus) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var err error
	for addr, c := range b.conns {
		err = multierr.Append(err, c.Close())
		delete(b.conns, addr)
	}
	return err
}

func (b *GobotBus) conn(addr uint16) (gobotI2C.Connection, error) {
	if c, ok := b.conns[addr]; ok {
		return c, nil
	}
	c, err := b.connector.GetI2cConnection(int(addr), b.busNr)
	if err != nil {
		return nil, fmt.Errorf("could not get connection to %#x on bus %d: %w", addr, b.busNr, err)
	}
	b.conns[addr] = c
	return c, nil
}
