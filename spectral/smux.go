package spectral

import (
	"errors"
	"fmt"
)

// SmuxSize is the length of the SMUX RAM, mapped to registers 0x00..0x13 while
// a SMUX write command is pending.
const SmuxSize = 20

var ErrInvalidSmux = errors.New("invalid smux table")

// ADC is one of the six integrating converters of the AS7341.
type ADC uint8

const (
	ADC0 ADC = iota
	ADC1
	ADC2
	ADC3
	ADC4
	ADC5
)

// ADCCount is the number of converters that can be read in one pass.
const ADCCount = 6

// nibble value connecting a pixel to this ADC; 0 leaves the pixel disconnected
func (a ADC) code() byte {
	return byte(a) + 1
}

func (a ADC) String() string {
	return fmt.Sprintf("ADC%d", a)
}

// Filter is an optical pixel group routed as a unit.
type Filter uint8

const (
	F1 Filter = iota
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	NIR
	Clear
)

var filterNames = [...]string{"F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "NIR", "Clear"}

func (f Filter) String() string {
	if int(f) < len(filterNames) {
		return filterNames[f]
	}
	return fmt.Sprintf("Filter(%d)", f)
}

// Channel returns the reading slot the filter reports into.
func (f Filter) Channel() Channel {
	return Channel(f)
}

// slot addresses one nibble of the SMUX RAM.
type slot struct {
	addr byte
	high bool
}

func (s slot) String() string {
	if s.high {
		return fmt.Sprintf("%#02x[6:4]", s.addr)
	}
	return fmt.Sprintf("%#02x[2:0]", s.addr)
}

// pixels of every filter, in RAM order
var filterSlots = [...][]slot{
	F1:    {{0x01, false}, {0x10, false}},
	F2:    {{0x05, false}, {0x0C, true}},
	F3:    {{0x00, true}, {0x0F, true}},
	F4:    {{0x05, true}, {0x0D, false}},
	F5:    {{0x06, true}, {0x09, true}},
	F6:    {{0x04, false}, {0x0E, true}},
	F7:    {{0x07, false}, {0x0A, false}},
	F8:    {{0x03, true}, {0x0E, false}},
	NIR:   {{0x13, false}},
	Clear: {{0x08, true}, {0x11, true}},
}

// SmuxTable is the content of the SMUX RAM. Each byte holds two 3 bit nibbles
// (bits 2:0 and 6:4); bits 3 and 7 are reserved and always zero.
type SmuxTable [SmuxSize]byte

// NewSmuxTable builds a table connecting every pixel of each filter to the given ADC.
// Filters missing from routing stay disconnected.
func NewSmuxTable(routing map[Filter]ADC) (SmuxTable, error) {
	var t SmuxTable
	for f, adc := range routing {
		if int(f) >= len(filterSlots) {
			return SmuxTable{}, fmt.Errorf("%w: unknown filter %d", ErrInvalidSmux, f)
		}
		if adc >= ADCCount {
			return SmuxTable{}, fmt.Errorf("%w: %s routed to nonexistent %s", ErrInvalidSmux, f, adc)
		}
		for _, s := range filterSlots[f] {
			if t.nibble(s) != 0 {
				return SmuxTable{}, fmt.Errorf("%w: slot %s assigned twice", ErrInvalidSmux, s)
			}
			t.setNibble(s, adc.code())
		}
	}
	return t, nil
}

// ParseSmuxTable validates raw RAM content.
func ParseSmuxTable(b []byte) (SmuxTable, error) {
	var t SmuxTable
	if len(b) != SmuxSize {
		return t, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSmux, SmuxSize, len(b))
	}
	copy(t[:], b)
	return t, t.Validate()
}

// Validate checks that reserved bits are clear and every nibble names ADC0..ADC5 or nothing.
func (t SmuxTable) Validate() error {
	for i, b := range t {
		if b&0x88 != 0 {
			return fmt.Errorf("%w: reserved bits set at %#02x: %#02x", ErrInvalidSmux, i, b)
		}
		if b&0x07 > ADCCount || (b>>4)&0x07 > ADCCount {
			return fmt.Errorf("%w: nibble above %d at %#02x: %#02x", ErrInvalidSmux, ADCCount, i, b)
		}
	}
	return nil
}

// Routing decodes the table back to the filter to ADC assignment. A filter
// whose pixels are split across different ADCs is an error.
func (t SmuxTable) Routing() (map[Filter]ADC, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	routing := make(map[Filter]ADC)
	for f, slots := range filterSlots {
		var code byte
		for _, s := range slots {
			n := t.nibble(s)
			if n == 0 {
				continue
			}
			if code != 0 && code != n {
				return nil, fmt.Errorf("%w: %s split between ADC%d and ADC%d", ErrInvalidSmux, Filter(f), code-1, n-1)
			}
			code = n
		}
		if code != 0 {
			routing[Filter(f)] = ADC(code - 1)
		}
	}
	return routing, nil
}

// Channels returns, indexed by ADC, the channel each converter reports in this
// table. The slice ends at the highest routed ADC; unused converters in between
// map to -1.
func (t SmuxTable) Channels() ([]Channel, error) {
	routing, err := t.Routing()
	if err != nil {
		return nil, err
	}
	var out []Channel
	for f, adc := range routing {
		for len(out) <= int(adc) {
			out = append(out, -1)
		}
		if out[adc] != -1 {
			return nil, fmt.Errorf("%w: %s shared by %s and %s", ErrInvalidSmux, adc, Filter(out[adc]), f)
		}
		out[adc] = f.Channel()
	}
	return out, nil
}

func (t *SmuxTable) nibble(s slot) byte {
	if s.high {
		return (t[s.addr] >> 4) & 0x07
	}
	return t[s.addr] & 0x07
}

func (t *SmuxTable) setNibble(s slot, v byte) {
	if s.high {
		t[s.addr] = t[s.addr]&0x0F | (v&0x07)<<4
		return
	}
	t[s.addr] = t[s.addr]&0xF0 | v&0x07
}

// PassA routes the six visible filters F1..F6 to ADC0..ADC5.
var PassA = mustSmuxTable(map[Filter]ADC{
	F1: ADC0,
	F2: ADC1,
	F3: ADC2,
	F4: ADC3,
	F5: ADC4,
	F6: ADC5,
})

// PassB routes F7, F8, NIR and Clear to ADC0..ADC3. ADC4 and ADC5 are unused.
var PassB = mustSmuxTable(map[Filter]ADC{
	F7:    ADC0,
	F8:    ADC1,
	NIR:   ADC2,
	Clear: ADC3,
})

func mustSmuxTable(routing map[Filter]ADC) SmuxTable {
	t, err := NewSmuxTable(routing)
	if err != nil {
		panic(err)
	}
	return t
}
