package spectral

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/hegemone"
)

func TestRLQI(t *testing.T) {
	tests := []struct {
		name     string
		reading  Reading
		expected Quality
	}{
		{
			name:     "balanced",
			reading:  Reading{100, 100, 100, 100, 100, 100, 100, 100, 100, 5000},
			expected: Quality{Blue: 33, Green: 33, Red: 33},
		},
		{
			name:     "blue only",
			reading:  Reading{10, 20, 30},
			expected: Quality{Blue: 100},
		},
		{
			name:     "near infrared counts as red",
			reading:  Reading{Blue415: 100, NIR910: 100},
			expected: Quality{Blue: 50, Red: 50},
		},
		{
			name:     "uneven",
			reading:  Reading{Green515: 1, Red630: 3},
			expected: Quality{Green: 25, Red: 75},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := RLQI(tt.reading)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, q)
		})
	}
}

func TestRLQI_Dark(t *testing.T) {
	q, err := RLQI(Reading{Clear350to1000: 1200})
	assert.ErrorIs(t, err, hegemone.ErrOutOfRange)
	assert.Equal(t, Quality{}, q)

	_, err = RLQI(Reading{})
	assert.ErrorIs(t, err, hegemone.ErrOutOfRange)
}

func TestReading_Named(t *testing.T) {
	r := Reading{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	named := r.Named()
	assert.Len(t, named, ChannelCount)
	assert.Equal(t, 1, named["blue_415nm"])
	assert.Equal(t, 9, named["nired_910nm"])
	assert.Equal(t, 10, named["clear_350nm_1000nm"])
	assert.Equal(t, uint16(7), r.Get(Red630))
	assert.Equal(t, "green_555nm", Green555.String())
	assert.Len(t, Channels(), ChannelCount)
}

func TestReading_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Reading{1, 2, 3, 4, 5, 6, 7, 8, 9, 65535})
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2,3,4,5,6,7,8,9,65535]`, string(b))
}
