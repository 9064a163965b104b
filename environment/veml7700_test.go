package environment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/mklimuk/hegemone"
	"github.com/mklimuk/hegemone/bustest"
	"github.com/mklimuk/hegemone/delay"
	"github.com/mklimuk/hegemone/i2c"
)

func TestVEML7700_ConfigureAndRead(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: VEML7700Address, W: []byte{0x00, 0x12, 0x13}},
			{Addr: VEML7700Address, W: []byte{0x05}, R: []byte{0x34, 0x12}},
			{Addr: VEML7700Address, W: []byte{0x04}, R: []byte{0xFF, 0x00}},
		},
		DontPanic: true,
	}
	rec := &delay.Recorder{}
	s := NewVEML7700(i2c.New(pb), WithLightSleeper(rec))
	ctx := context.Background()

	require.NoError(t, s.Configure(ctx))
	assert.Equal(t, []time.Duration{500 * time.Microsecond}, rec.Calls())

	white, err := s.ReadWhite(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4660, white)

	als, err := s.ReadALS(ctx)
	require.NoError(t, err)
	assert.Equal(t, 255, als)
	assert.NoError(t, pb.Close())
}

func TestVEML7700_ReadWhiteFailure(t *testing.T) {
	bus := bustest.New().Attach(VEML7700Address, bustest.Fail(errors.New("nack")))
	s := NewVEML7700(i2c.New(bus))

	white, err := s.ReadWhite(context.Background())
	assert.Zero(t, white)
	assert.ErrorIs(t, err, hegemone.ErrIOFailure)
}

func TestVEML7700_ConfigureFailure(t *testing.T) {
	bus := bustest.New().Attach(VEML7700Address, bustest.Fail(errors.New("nack")))
	rec := &delay.Recorder{}
	s := NewVEML7700(i2c.New(bus), WithLightSleeper(rec))

	err := s.Configure(context.Background())
	assert.ErrorIs(t, err, hegemone.ErrIOFailure)
	assert.Empty(t, rec.Calls())
}
