package spectral

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mklimuk/hegemone"
	"github.com/mklimuk/hegemone/delay"
)

// AS7341Address is the fixed address of the ams AS7341 11-channel spectral sensor.
const AS7341Address = 0x39

// Register map. Registers 0x60..0x74 need REG_BANK set in CFG0; everything used
// here lives in the high bank.
const (
	regConfig  byte = 0x70
	regEnable  byte = 0x80
	regATime   byte = 0x81
	regCh0Data byte = 0x95
	regStatus2 byte = 0xA3
	regStatus6 byte = 0xA7
	regCfg0    byte = 0xA9
	regGain    byte = 0xAA
	regCfg6    byte = 0xAF
	regAStepL  byte = 0xCA
	regAStepH  byte = 0xCB
)

// ENABLE values
const (
	enableOff         byte = 0x00
	enablePowerOn     byte = 0x01
	enableSpectral    byte = 0x03 // SP_EN | PON
	enableSmuxPowerOn byte = 0x11 // SMUXEN | PON
)

const (
	intModeSPM     byte = 0x00
	configSPMFinal byte = 0x03
	cfg6SmuxWrite  byte = 0x10
	cfg0Blank      byte = 0x40
	gain4x         byte = 0x03
)

// Integration time = (ATIME + 1) x (ASTEP + 1) x 2.78 us, about 100 ms.
const (
	aTime byte   = 60
	aStep uint16 = 589
)

// STATUS2 bits
const (
	status2Valid       byte = 0x40
	status2SatDigital  byte = 0x10
	status2SatAnalog   byte = 0x08
	status2Saturations      = status2SatDigital | status2SatAnalog
)

// State is the position of the driver in the acquisition state machine.
type State int32

const (
	StateIdle State = iota
	StatePowerOn
	StateConfiguring
	StateSmuxLoading
	StateEnabled
	StatePolling
	StateReady
	StateFaulted
)

var stateNames = [...]string{"idle", "power-on", "configuring", "smux-loading", "enabled", "polling", "ready", "faulted"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

type pass struct {
	name     string
	table    SmuxTable
	channels []Channel
}

func newPass(name string, t SmuxTable) pass {
	channels, err := t.Channels()
	if err != nil {
		panic(err)
	}
	return pass{name: name, table: t, channels: channels}
}

var passes = []pass{
	newPass("A", PassA),
	newPass("B", PassB),
}

type AS7341Opts struct {
	PollInterval    time.Duration
	SmuxSettleDelay time.Duration
	// PollTimeout bounds the wait for a valid measurement; zero waits forever.
	PollTimeout time.Duration
	Sleeper     delay.Sleeper
}

type AS7341Opt func(*AS7341Opts)

func WithPollInterval(d time.Duration) AS7341Opt {
	return func(o *AS7341Opts) {
		o.PollInterval = d
	}
}

func WithSmuxSettleDelay(d time.Duration) AS7341Opt {
	return func(o *AS7341Opts) {
		o.SmuxSettleDelay = d
	}
}

// WithPollTimeout makes PhotonFlux give up with ErrTimeout when the device does
// not report a valid measurement within d.
func WithPollTimeout(d time.Duration) AS7341Opt {
	return func(o *AS7341Opts) {
		o.PollTimeout = d
	}
}

func WithSpectralSleeper(s delay.Sleeper) AS7341Opt {
	return func(o *AS7341Opts) {
		o.Sleeper = s
	}
}

// AS7341 represents the ams AS7341 spectral sensor. Only six ADCs exist for ten
// channels so every acquisition runs two passes with different SMUX tables.
// Typical usage:
//
//	s := NewAS7341(bus, WithPollTimeout(5*time.Second))
//	if err := s.Configure(ctx); err != nil { ... }
//	r, err := s.PhotonFlux(ctx)
//
// After an error wrapping ErrConfigurationIncomplete the device is in an unknown
// state and Configure must be called again.
type AS7341 struct {
	mx        sync.Mutex
	config    AS7341Opts
	transport hegemone.I2CBus
	state     atomic.Int32
	cmd       *hegemone.Buffer
	reg       *hegemone.Buffer
	oneBuf    *hegemone.Buffer
	twoBuf    *hegemone.Buffer
}

func NewAS7341(transport hegemone.I2CBus, opts ...AS7341Opt) *AS7341 {
	config := AS7341Opts{
		PollInterval:    400 * time.Microsecond,
		SmuxSettleDelay: 500 * time.Microsecond,
		Sleeper:         delay.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &AS7341{
		config:    config,
		transport: transport,
		cmd:       hegemone.NewBuffer(2),
		reg:       hegemone.NewBuffer(1),
		oneBuf:    hegemone.NewBuffer(1),
		twoBuf:    hegemone.NewBuffer(2),
	}
}

// State returns the state reached by the last operation.
func (s *AS7341) State() State {
	return State(s.state.Load())
}

func (s *AS7341) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev != next {
		slog.Debug("as7341 state changed", "from", prev, "to", next)
	}
}

// Configure powers the device on, sets integration time and gain, and selects
// spectral measurement mode.
func (s *AS7341) Configure(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	s.setState(StatePowerOn)
	err := s.transport.Session(ctx, AS7341Address, func(c hegemone.Conn) error {
		if err := s.write(c, regEnable, enablePowerOn); err != nil {
			return err
		}
		s.setState(StateConfiguring)
		if err := s.write(c, regConfig, intModeSPM); err != nil {
			return err
		}
		if err := s.writeIntegrationTime(c); err != nil {
			return err
		}
		if err := s.write(c, regGain, gain4x); err != nil {
			return err
		}
		return s.write(c, regConfig, configSPMFinal)
	})
	if err != nil {
		return s.fault("configure", err)
	}
	s.setState(StateIdle)
	return nil
}

// PhotonFlux runs both acquisition passes and returns all ten channels.
func (s *AS7341) PhotonFlux(ctx context.Context) (Reading, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	var r Reading
	for _, p := range passes {
		if err := s.acquire(ctx, p, &r); err != nil {
			return Reading{}, err
		}
	}
	return r, nil
}

func (s *AS7341) acquire(ctx context.Context, p pass, r *Reading) error {
	s.setState(StatePowerOn)
	err := s.transport.Session(ctx, AS7341Address, func(c hegemone.Conn) error {
		if err := s.write(c, regEnable, enablePowerOn); err != nil {
			return err
		}
		s.setState(StateConfiguring)
		if err := s.write(c, regConfig, intModeSPM); err != nil {
			return err
		}
		if err := s.write(c, regGain, gain4x); err != nil {
			return err
		}
		return s.writeIntegrationTime(c)
	})
	if err != nil {
		return s.fault("pass "+p.name+" configuration", err)
	}

	s.setState(StateSmuxLoading)
	if err := s.loadSmux(ctx, p.table); err != nil {
		return s.fault("pass "+p.name+" smux upload", err)
	}

	if err := s.writeOne(ctx, regEnable, enableSpectral); err != nil {
		return s.fault("pass "+p.name+" measurement enable", err)
	}
	s.setState(StateEnabled)

	s.setState(StatePolling)
	if err := s.waitValid(ctx); err != nil {
		return fmt.Errorf("as7341: pass %s: %w", p.name, err)
	}
	s.setState(StateReady)

	for adc, ch := range p.channels {
		if ch < 0 {
			continue
		}
		val, err := s.readWord(ctx, regCh0Data+2*byte(adc))
		if err != nil {
			return fmt.Errorf("as7341: pass %s: could not read %s: %w", p.name, ch, err)
		}
		r[ch] = val
	}
	return nil
}

// writeIntegrationTime writes ASTEP low byte then high byte followed by ATIME.
// ASTEP is latched: both halves must be written within the caller's session.
func (s *AS7341) writeIntegrationTime(c hegemone.Conn) error {
	if err := s.write(c, regAStepL, byte(aStep&0xFF)); err != nil {
		return err
	}
	if err := s.write(c, regAStepH, byte(aStep>>8)); err != nil {
		return err
	}
	return s.write(c, regATime, aTime)
}

// loadSmux uploads t to the SMUX RAM and executes it. Completion is not signalled
// through the interrupt line, the driver waits SmuxSettleDelay instead.
func (s *AS7341) loadSmux(ctx context.Context, t SmuxTable) error {
	if err := t.Validate(); err != nil {
		return err
	}
	err := s.transport.Session(ctx, AS7341Address, func(c hegemone.Conn) error {
		if err := s.write(c, regEnable, enablePowerOn); err != nil {
			return err
		}
		if err := s.write(c, regCfg6, cfg6SmuxWrite); err != nil {
			return err
		}
		for i, b := range t {
			if err := s.write(c, byte(i), b); err != nil {
				return fmt.Errorf("smux byte %#02x: %w", i, err)
			}
		}
		if err := s.write(c, regCfg0, cfg0Blank); err != nil {
			return err
		}
		return s.write(c, regEnable, enableSmuxPowerOn)
	})
	if err != nil {
		return err
	}
	s.config.Sleeper.Sleep(s.config.SmuxSettleDelay)
	return s.writeOne(ctx, regEnable, enablePowerOn)
}

// waitValid polls STATUS2 until AVALID is set. Without a poll timeout or a
// context deadline an unresponsive device is polled forever.
func (s *AS7341) waitValid(ctx context.Context) error {
	start := time.Now()
	var waited time.Duration
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("waiting for valid measurement: %w: %w", hegemone.ErrTimeout, err)
		}
		status, err := s.readByte(ctx, regStatus2)
		if err != nil {
			return fmt.Errorf("could not read status: %w", err)
		}
		if status&status2Valid != 0 {
			if status&status2Saturations != 0 {
				slog.Warn("as7341 measurement saturated",
					"digital", status&status2SatDigital != 0,
					"analog", status&status2SatAnalog != 0)
			}
			return nil
		}
		if s.config.PollTimeout > 0 && max(time.Since(start), waited) >= s.config.PollTimeout {
			return fmt.Errorf("no valid measurement after %s: %w: %w", s.config.PollTimeout, hegemone.ErrTimeout, hegemone.ErrNotReady)
		}
		s.config.Sleeper.Sleep(s.config.PollInterval)
		waited += s.config.PollInterval
	}
}

// Disable powers the device off.
func (s *AS7341) Disable(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.writeOne(ctx, regEnable, enableOff); err != nil {
		return fmt.Errorf("as7341: could not power off: %w", err)
	}
	s.setState(StateIdle)
	return nil
}

// ChipStatus reports the error and activity flags of STATUS6.
type ChipStatus struct {
	Raw                 byte `json:"raw" yaml:"raw"`
	FIFOOverflow        bool `json:"fifo_overflow" yaml:"fifo_overflow"`
	OverTemperature     bool `json:"over_temperature" yaml:"over_temperature"`
	TriggerError        bool `json:"trigger_error" yaml:"trigger_error"`
	SleepAfterInterrupt bool `json:"sleep_after_interrupt" yaml:"sleep_after_interrupt"`
	InitBusy            bool `json:"init_busy" yaml:"init_busy"`
}

// Healthy is true when no error flag is raised and the device is not initializing.
func (c ChipStatus) Healthy() bool {
	return !c.FIFOOverflow && !c.OverTemperature && !c.TriggerError && !c.InitBusy
}

func decodeChipStatus(b byte) ChipStatus {
	return ChipStatus{
		Raw:                 b,
		FIFOOverflow:        b&0x80 != 0,
		OverTemperature:     b&0x20 != 0,
		TriggerError:        b&0x04 != 0,
		SleepAfterInterrupt: b&0x02 != 0,
		InitBusy:            b&0x01 != 0,
	}
}

func (s *AS7341) ChipStatus(ctx context.Context) (ChipStatus, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	b, err := s.readByte(ctx, regStatus6)
	if err != nil {
		return ChipStatus{}, fmt.Errorf("as7341: could not read chip status: %w", err)
	}
	return decodeChipStatus(b), nil
}

func (s *AS7341) fault(step string, err error) error {
	s.setState(StateFaulted)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("as7341: %s: %w", step, err)
	}
	return fmt.Errorf("as7341: %s: %w: %w", step, hegemone.ErrConfigurationIncomplete, err)
}

// write sets a single register on an already selected device.
func (s *AS7341) write(c hegemone.Conn, reg, val byte) error {
	if err := s.cmd.Put(reg, val); err != nil {
		return err
	}
	return c.Write(s.cmd.Bytes())
}

func (s *AS7341) writeOne(ctx context.Context, reg, val byte) error {
	if err := s.cmd.Put(reg, val); err != nil {
		return err
	}
	return s.transport.WriteToAddr(ctx, AS7341Address, s.cmd.Bytes())
}

func (s *AS7341) readByte(ctx context.Context, reg byte) (byte, error) {
	if err := s.reg.Put(reg); err != nil {
		return 0, err
	}
	s.oneBuf.Reset()
	if err := s.transport.TxToAddr(ctx, AS7341Address, s.reg.Bytes(), s.oneBuf.Bytes()); err != nil {
		return 0, err
	}
	return s.oneBuf.Bytes()[0], nil
}

// readWord reads a 16 bit result. The low byte latches the value, both must
// come from one composite transfer.
func (s *AS7341) readWord(ctx context.Context, reg byte) (uint16, error) {
	if err := s.reg.Put(reg); err != nil {
		return 0, err
	}
	s.twoBuf.Reset()
	if err := s.transport.TxToAddr(ctx, AS7341Address, s.reg.Bytes(), s.twoBuf.Bytes()); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s.twoBuf.Bytes()), nil
}
