package i2c

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gobotI2C "gobot.io/x/gobot/v2/drivers/i2c"
)

type fakeGobotConn struct {
	gobotI2C.Connection
	written  [][]byte
	blockReg []byte
	data     []byte
	closed   bool
}

func (c *fakeGobotConn) Write(b []byte) (int, error) {
	c.written = append(c.written, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeGobotConn) Read(b []byte) (int, error) {
	return copy(b, c.data), nil
}

func (c *fakeGobotConn) ReadBlockData(reg uint8, b []byte) error {
	c.blockReg = append(c.blockReg, reg)
	copy(b, c.data)
	return nil
}

func (c *fakeGobotConn) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conns map[int]*fakeGobotConn
	err   error
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (gobotI2C.Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.conns[address]
	if !ok {
		c = &fakeGobotConn{}
		f.conns[address] = c
	}
	return c, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 0
}

func TestGobotBus_Tx(t *testing.T) {
	connector := &fakeConnector{conns: map[int]*fakeGobotConn{
		0x10: {data: []byte{0x34, 0x12}},
	}}
	bus := NewGobotBus(connector, 2)
	assert.Equal(t, "gobot-i2c-2", bus.String())

	require.NoError(t, bus.Tx(0x10, []byte{0x00, 0x12, 0x13}, nil))
	r := make([]byte, 2)
	require.NoError(t, bus.Tx(0x10, []byte{0x05}, r))
	assert.Equal(t, []byte{0x34, 0x12}, r)
	require.NoError(t, bus.Tx(0x10, nil, r))

	conn := connector.conns[0x10]
	assert.True(t, bytes.Equal([]byte{0x00, 0x12, 0x13}, conn.written[0]))
	assert.Equal(t, []byte{0x05}, conn.blockReg)

	err := bus.Tx(0x10, []byte{0x05, 0x06}, r)
	assert.ErrorIs(t, err, ErrUnsupportedTransfer)

	require.NoError(t, bus.Close())
	assert.True(t, conn.closed)
}

func TestGobotBus_ConnectionError(t *testing.T) {
	bus := NewGobotBus(&fakeConnector{err: errors.New("no such bus")}, 1)
	err := bus.Tx(0x39, []byte{0x80, 0x01}, nil)
	assert.ErrorContains(t, err, "no such bus")
}
