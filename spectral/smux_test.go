package spectral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmuxTable_PassA(t *testing.T) {
	expected := SmuxTable{
		0x00: 0x30, 0x01: 0x01, 0x04: 0x06, 0x05: 0x42, 0x06: 0x50, 0x09: 0x50,
		0x0C: 0x20, 0x0D: 0x04, 0x0E: 0x60, 0x0F: 0x30, 0x10: 0x01,
	}
	assert.Equal(t, expected, PassA)
}

func TestSmuxTable_PassB(t *testing.T) {
	expected := SmuxTable{
		0x03: 0x20, 0x07: 0x01, 0x08: 0x40, 0x0A: 0x01, 0x0E: 0x02, 0x11: 0x40, 0x13: 0x03,
	}
	assert.Equal(t, expected, PassB)
}

func TestSmuxTable_RoutingRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		routing map[Filter]ADC
	}{
		{"visible", map[Filter]ADC{F1: ADC0, F2: ADC1, F3: ADC2, F4: ADC3, F5: ADC4, F6: ADC5}},
		{"red nir clear", map[Filter]ADC{F7: ADC0, F8: ADC1, NIR: ADC2, Clear: ADC3}},
		{"shared byte", map[Filter]ADC{F6: ADC2, F8: ADC4}},
		{"empty", map[Filter]ADC{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewSmuxTable(tt.routing)
			require.NoError(t, err)
			require.NoError(t, table.Validate())
			decoded, err := table.Routing()
			require.NoError(t, err)
			assert.Equal(t, tt.routing, decoded)
		})
	}
}

func TestSmuxTable_Channels(t *testing.T) {
	a, err := PassA.Channels()
	require.NoError(t, err)
	assert.Equal(t, []Channel{Blue415, Blue445, Blue480, Green515, Green555, Green590}, a)

	b, err := PassB.Channels()
	require.NoError(t, err)
	assert.Equal(t, []Channel{Red630, Red680, NIR910, Clear350to1000}, b)

	gap, err := NewSmuxTable(map[Filter]ADC{F1: ADC0, Clear: ADC2})
	require.NoError(t, err)
	ch, err := gap.Channels()
	require.NoError(t, err)
	assert.Equal(t, []Channel{Blue415, -1, Clear350to1000}, ch)

	shared, err := NewSmuxTable(map[Filter]ADC{F1: ADC0, F2: ADC0})
	require.NoError(t, err)
	_, err = shared.Channels()
	assert.ErrorIs(t, err, ErrInvalidSmux)
}

func TestSmuxTable_Invalid(t *testing.T) {
	_, err := NewSmuxTable(map[Filter]ADC{F1: ADC(6)})
	assert.ErrorIs(t, err, ErrInvalidSmux)

	_, err = NewSmuxTable(map[Filter]ADC{Filter(10): ADC0})
	assert.ErrorIs(t, err, ErrInvalidSmux)

	_, err = ParseSmuxTable(make([]byte, 19))
	assert.ErrorIs(t, err, ErrInvalidSmux)

	raw := make([]byte, SmuxSize)
	raw[4] = 0x08
	_, err = ParseSmuxTable(raw)
	assert.ErrorIs(t, err, ErrInvalidSmux, "reserved bit 3")

	raw[4] = 0x80
	_, err = ParseSmuxTable(raw)
	assert.ErrorIs(t, err, ErrInvalidSmux, "reserved bit 7")

	raw[4] = 0x07
	_, err = ParseSmuxTable(raw)
	assert.ErrorIs(t, err, ErrInvalidSmux, "nibble above ADC5")

	// F1 pixels on different converters
	raw[4] = 0x00
	raw[0x01] = 0x01
	raw[0x10] = 0x02
	table, err := ParseSmuxTable(raw)
	require.NoError(t, err)
	_, err = table.Routing()
	assert.ErrorIs(t, err, ErrInvalidSmux)
}

func TestSmuxTable_ReservedBitsNeverSet(t *testing.T) {
	for _, table := range []SmuxTable{PassA, PassB} {
		for i, b := range table {
			assert.Zero(t, b&0x88, "byte %#02x", i)
		}
	}
}
