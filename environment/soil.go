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

// SoilAddress is the fixed address of the Adafruit STEMMA capacitive soil sensor (seesaw).
const SoilAddress = 0x36

// seesaw module/function pairs
const (
	soilTempModule     = 0x00
	soilTempFunction   = 0x04
	soilMoistureModule = 0x0F
	soilMoistureFunc   = 0x10
)

// MoistureMax is the 12 bit ADC ceiling of the capacitive touch channel.
const MoistureMax = 4095

// soilTempScale converts the 16.16 fixed point temperature to degrees Celsius.
const soilTempScale = 0.00001525878

type SoilOpts struct {
	SettleDelay      time.Duration
	ReadDelay        time.Duration
	MoistureAttempts int
	Sleeper          delay.Sleeper
}

type SoilOpt func(*SoilOpts)

// WithSoilSettleDelay sets the wait between a command and the first read.
func WithSoilSettleDelay(d time.Duration) SoilOpt {
	return func(o *SoilOpts) {
		o.SettleDelay = d
	}
}

// WithSoilReadDelay sets the wait between two moisture read attempts.
func WithSoilReadDelay(d time.Duration) SoilOpt {
	return func(o *SoilOpts) {
		o.ReadDelay = d
	}
}

func WithMoistureAttempts(n int) SoilOpt {
	return func(o *SoilOpts) {
		o.MoistureAttempts = n
	}
}

func WithSoilSleeper(s delay.Sleeper) SoilOpt {
	return func(o *SoilOpts) {
		o.Sleeper = s
	}
}

// Soil reads moisture and temperature from an Adafruit seesaw soil sensor.
// Typical usage:
//
//	s := NewSoil(bus)
//	m, err := s.ReadMoisture(ctx)
//
// Moisture is the raw capacitive count (0..4095). Zero together with an error
// means the value is unavailable, not that the soil is dry.
type Soil struct {
	mx        sync.Mutex
	config    SoilOpts
	transport hegemone.I2CBus
	cmd       *hegemone.Buffer
	twoBuf    *hegemone.Buffer
	fourBuf   *hegemone.Buffer
}

func NewSoil(transport hegemone.I2CBus, opts ...SoilOpt) *Soil {
	config := SoilOpts{
		SettleDelay:      1600 * time.Microsecond,
		ReadDelay:        800 * time.Microsecond,
		MoistureAttempts: 4,
		Sleeper:          delay.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.MoistureAttempts < 1 {
		config.MoistureAttempts = 1
	}
	return &Soil{
		config:    config,
		transport: transport,
		cmd:       hegemone.NewBuffer(2),
		twoBuf:    hegemone.NewBuffer(2),
		fourBuf:   hegemone.NewBuffer(4),
	}
}

// ReadTemperature returns the soil temperature in degrees Celsius.
func (s *Soil) ReadTemperature(ctx context.Context) (float64, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.command(ctx, soilTempModule, soilTempFunction); err != nil {
		return 0, fmt.Errorf("soil: could not write temperature command: %w", err)
	}
	s.config.Sleeper.Sleep(s.config.SettleDelay)
	s.fourBuf.Reset()
	if err := s.transport.ReadFromAddr(ctx, SoilAddress, s.fourBuf.Bytes()); err != nil {
		return 0, fmt.Errorf("soil: could not read temperature: %w", err)
	}
	return convertSoilTemperature(s.fourBuf.Bytes()), nil
}

// ReadMoisture returns the capacitive moisture count. Over-range reads are
// treated as conversion glitches and re-read without re-sending the command;
// failed reads consume the same attempt budget.
func (s *Soil) ReadMoisture(ctx context.Context) (int, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if err := s.command(ctx, soilMoistureModule, soilMoistureFunc); err != nil {
		return 0, fmt.Errorf("soil: could not write moisture command: %w", err)
	}
	s.config.Sleeper.Sleep(s.config.SettleDelay)
	var lastErr error
	for attempt := 1; attempt <= s.config.MoistureAttempts; attempt++ {
		if attempt > 1 {
			s.config.Sleeper.Sleep(s.config.ReadDelay)
		}
		s.twoBuf.Reset()
		err := s.transport.ReadFromAddr(ctx, SoilAddress, s.twoBuf.Bytes())
		if err != nil {
			lastErr = err
			continue
		}
		val := int(binary.BigEndian.Uint16(s.twoBuf.Bytes()))
		if val > MoistureMax {
			lastErr = fmt.Errorf("raw moisture %d above %d: %w", val, MoistureMax, hegemone.ErrOutOfRange)
			continue
		}
		return val, nil
	}
	return 0, fmt.Errorf("soil: no valid moisture after %d attempts: %w: %w",
		s.config.MoistureAttempts, hegemone.ErrRetriesExhausted, lastErr)
}

func (s *Soil) command(ctx context.Context, module, function byte) error {
	if err := s.cmd.Put(module, function); err != nil {
		return err
	}
	return s.transport.WriteToAddr(ctx, SoilAddress, s.cmd.Bytes())
}

func convertSoilTemperature(resp []byte) float64 {
	// two top bits are reserved
	raw := binary.BigEndian.Uint32([]byte{resp[0] & 0x3F, resp[1], resp[2], resp[3]})
	return soilTempScale * float64(raw)
}
