package environment

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/mklimuk/hegemone"
	"github.com/mklimuk/hegemone/delay"
)

// VEML7700Address is the fixed address of the Vishay VEML7700 ambient light sensor.
const VEML7700Address = 0x10

const (
	vemlRegConfig = 0x00
	vemlRegALS    = 0x04
	vemlRegWhite  = 0x05
)

// ALS_CONF written little-endian: gain 1/8, integration time 25 ms.
const (
	vemlConfigLow  = 0x12
	vemlConfigHigh = 0x13
)

type VEML7700Opts struct {
	SettleDelay time.Duration
	Sleeper     delay.Sleeper
}

type VEML7700Opt func(*VEML7700Opts)

func WithLightSettleDelay(d time.Duration) VEML7700Opt {
	return func(o *VEML7700Opts) {
		o.SettleDelay = d
	}
}

func WithLightSleeper(s delay.Sleeper) VEML7700Opt {
	return func(o *VEML7700Opts) {
		o.Sleeper = s
	}
}

// VEML7700 represents the Vishay VEML7700 ambient light sensor.
// Configure must be called once before the first read.
type VEML7700 struct {
	mx        sync.Mutex
	config    VEML7700Opts
	transport hegemone.I2CBus
	cmd       *hegemone.Buffer
	reg       *hegemone.Buffer
	buf       *hegemone.Buffer
}

func NewVEML7700(transport hegemone.I2CBus, opts ...VEML7700Opt) *VEML7700 {
	config := VEML7700Opts{
		SettleDelay: 500 * time.Microsecond,
		Sleeper:     delay.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &VEML7700{
		config:    config,
		transport: transport,
		cmd:       hegemone.NewBuffer(3),
		reg:       hegemone.NewBuffer(1),
		buf:       hegemone.NewBuffer(2),
	}
}

// Configure selects 1/8 gain and 25 ms integration time in a single write.
func (s *VEML7700) Configure(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.cmd.Put(vemlRegConfig, vemlConfigLow, vemlConfigHigh); err != nil {
		return err
	}
	if err := s.transport.WriteToAddr(ctx, VEML7700Address, s.cmd.Bytes()); err != nil {
		return fmt.Errorf("veml7700: could not write configuration: %w", err)
	}
	s.config.Sleeper.Sleep(s.config.SettleDelay)
	return nil
}

// ReadWhite returns the raw white channel count.
func (s *VEML7700) ReadWhite(ctx context.Context) (int, error) {
	val, err := s.readRegister(ctx, vemlRegWhite)
	if err != nil {
		return 0, fmt.Errorf("veml7700: could not read white channel: %w", err)
	}
	return val, nil
}

// ReadALS returns the raw ambient light channel count.
func (s *VEML7700) ReadALS(ctx context.Context) (int, error) {
	val, err := s.readRegister(ctx, vemlRegALS)
	if err != nil {
		return 0, fmt.Errorf("veml7700: could not read ALS channel: %w", err)
	}
	return val, nil
}

func (s *VEML7700) readRegister(ctx context.Context, reg byte) (int, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.reg.Put(reg); err != nil {
		return 0, err
	}
	s.buf.Reset()
	if err := s.transport.TxToAddr(ctx, VEML7700Address, s.reg.Bytes(), s.buf.Bytes()); err != nil {
		return 0, err
	}
	// the device answers little-endian regardless of the host
	return int(binary.LittleEndian.Uint16(s.buf.Bytes())), nil
}
