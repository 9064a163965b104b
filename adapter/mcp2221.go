package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/hegemone"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// maxTransfer is the largest payload a single HID report can carry.
const maxTransfer = 60

const (
	cmdStatus          = 0x10
	cmdGetData         = 0x40
	cmdWriteData       = 0x90
	cmdReadData        = 0x91
	cmdReadRepeated    = 0x93
	cmdWriteNoStop     = 0x94
	statusCancelI2C    = 0x10
	statusSetSpeed     = 0x20
	responseEngineBusy = 0x01
	responseReadError  = 0x41
	responseSizeError  = 127
)

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")

var _ i2c.Bus = &MCP2221{}

// MCP2221 is a Microchip USB-HID to I2C bridge. It implements the periph bus
// interface so it can back an i2c.Handle exactly like the Linux adapter.
type MCP2221 struct {
	// Verbose dumps every HID report at debug level.
	Verbose bool

	mx           sync.Mutex
	id           []int
	request      []byte
	response     []byte
	responseWait time.Duration
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

// NewMCP2221 returns a bridge handle. id selects the device when more than one
// bridge is plugged in.
func NewMCP2221(id ...int) *MCP2221 {
	return &MCP2221{
		id:           id,
		request:      make([]byte, 64),
		response:     make([]byte, 64),
		responseWait: 50 * time.Millisecond,
	}
}

func (d *MCP2221) String() string {
	return fmt.Sprintf("mcp2221-%04x:%04x", VendorID, ProductID)
}

// Tx performs a write, a read or a write followed by a repeated-start read
// without a stop condition between the two phases.
func (d *MCP2221) Tx(addr uint16, w, r []byte) error {
	if len(w) > maxTransfer || len(r) > maxTransfer {
		return fmt.Errorf("transfer longer than %d bytes: %w", maxTransfer, ErrCommandUnsupported)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	address := byte(addr)
	switch {
	case len(r) == 0:
		return d.write(cmdWriteData, address, w)
	case len(w) == 0:
		return d.read(cmdReadData, address, r)
	default:
		if err := d.write(cmdWriteNoStop, address, w); err != nil {
			return err
		}
		return d.read(cmdReadRepeated, address, r)
	}
}

// SetSpeed programs the I2C clock divider (12 MHz / f - 3).
func (d *MCP2221) SetSpeed(f physic.Frequency) error {
	hz := int64(f / physic.Hertz)
	if hz <= 0 {
		return fmt.Errorf("invalid bus speed %s", f)
	}
	divider := 12_000_000/hz - 3
	if divider < 0 || divider > 255 {
		return fmt.Errorf("bus speed %s out of range: %w", f, ErrCommandUnsupported)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[3] = statusSetSpeed
	d.request[4] = byte(divider)
	if err := d.send(true); err != nil {
		return fmt.Errorf("set speed request failed: %w", err)
	}
	if d.response[3] != statusSetSpeed {
		return fmt.Errorf("set speed not accepted: %w", ErrCommandFailed)
	}
	return nil
}

func (d *MCP2221) write(cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(true)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	// write could not be performed
	if d.response[1] == responseEngineBusy {
		slog.Debug("adapter busy", "addr", address)
		return hegemone.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(cmd byte, address byte, buffer []byte) error {
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(true)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	if d.response[1] == responseEngineBusy {
		return hegemone.ErrBusBusy
	}
	d.request[0] = cmdGetData
	resetBuffer(d.response)
	err = d.send(true)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == responseReadError {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if d.response[3] == responseSizeError || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	status := &MCP2221Status{
		I2CDataBufferCounter: int(buffer[13]),
		I2CSpeedDivider:      int(buffer[14]),
		I2CTimeout:           int(buffer[15]),
		ReadPending:          int(buffer[25]),
		CurrentAddress:       hex.EncodeToString(buffer[16:18]),
	}
	status.LastWriteRequestedSize = binary.LittleEndian.Uint16(buffer[9:11])
	status.LastWriteSentSize = binary.LittleEndian.Uint16(buffer[11:13])
	return status
}

// Release cancels the current transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancelI2C
	err := d.send(true)
	if err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) send(response bool) error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) > 1 && len(d.id) == 0 {
		return fmt.Errorf("ambiguous device identification")
	}
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	idx := 0
	if len(d.id) > 0 {
		idx = d.id[0]
		if idx < 0 || idx >= len(devs) {
			return fmt.Errorf("no device with id %d", idx)
		}
	}
	dev, err := devs[idx].Open()
	if err != nil {
		return fmt.Errorf("error opening device: %w", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Warn("could not close adapter", "error", err)
		}
	}()
	if d.Verbose {
		slog.Debug("sending message to adapter", "report", hex.EncodeToString(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	time.Sleep(d.responseWait)
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != 64 {
		return fmt.Errorf("short read: %d", n)
	}
	if d.Verbose {
		slog.Debug("read message from adapter", "report", hex.EncodeToString(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	resetBuffer(d.request)
	resetBuffer(d.response)
}

func resetBuffer(buf []byte) {
	for i := range buf {
		buf[i] = 0x00
	}
}
