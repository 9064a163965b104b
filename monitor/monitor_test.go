package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/hegemone/report"
)

type mockCollector struct {
	mock.Mock
}

func (m *mockCollector) Collect(ctx context.Context) (report.Reading, error) {
	args := m.Called(ctx)
	return args.Get(0).(report.Reading), args.Error(1)
}

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, r report.Reading) error {
	return m.Called(ctx, r).Error(0)
}

func TestMonitor_Tick(t *testing.T) {
	r := report.Reading{DeviceID: "test", MoistureLevel: 700}
	c := &mockCollector{}
	c.On("Collect", mock.Anything).Return(r, nil).Once()
	s := &mockSubmitter{}
	s.On("Submit", mock.Anything, r).Return(nil).Once()

	m := New(c, s)
	require.NoError(t, m.Tick(context.Background()))
	assert.EqualValues(t, 1, m.Cycles())
	assert.EqualValues(t, 0, m.Failures())
	c.AssertExpectations(t)
	s.AssertExpectations(t)
}

func TestMonitor_TickPartial(t *testing.T) {
	r := report.Reading{DeviceID: "test", SoilTemp: 19}
	c := &mockCollector{}
	c.On("Collect", mock.Anything).Return(r, errors.New("moisture unavailable"))
	s := &mockSubmitter{}
	s.On("Submit", mock.Anything, r).Return(errors.New("endpoint down"))

	var hookCollectErr, hookSubmitErr error
	m := New(c, s, WithCycleHook(func(_ report.Reading, collectErr, submitErr error) {
		hookCollectErr, hookSubmitErr = collectErr, submitErr
	}))
	err := m.Tick(context.Background())
	assert.ErrorContains(t, err, "endpoint down")
	assert.EqualError(t, hookCollectErr, "moisture unavailable")
	assert.EqualError(t, hookSubmitErr, "endpoint down")
	assert.EqualValues(t, 1, m.Failures())
	s.AssertCalled(t, "Submit", mock.Anything, r)
}

func TestMonitor_CycleTimeout(t *testing.T) {
	c := &mockCollector{}
	c.On("Collect", mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		_, ok := ctx.Deadline()
		assert.True(t, ok)
	}).Return(report.Reading{}, nil)
	s := &mockSubmitter{}
	s.On("Submit", mock.Anything, mock.Anything).Return(nil)

	require.NoError(t, New(c, s, WithCycleTimeout(time.Second)).Tick(context.Background()))
}

type slowCollector struct {
	running atomic.Int32
	overlap atomic.Bool
	calls   atomic.Int32
}

func (c *slowCollector) Collect(ctx context.Context) (report.Reading, error) {
	if c.running.Add(1) > 1 {
		c.overlap.Store(true)
	}
	defer c.running.Add(-1)
	c.calls.Add(1)
	time.Sleep(30 * time.Millisecond)
	return report.Reading{}, nil
}

func TestMonitor_RunDoesNotOverlap(t *testing.T) {
	c := &slowCollector{}
	s := &mockSubmitter{}
	s.On("Submit", mock.Anything, mock.Anything).Return(nil)
	m := New(c, s, WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))

	assert.GreaterOrEqual(t, c.calls.Load(), int32(2))
	assert.False(t, c.overlap.Load())
}
