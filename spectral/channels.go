package spectral

import (
	"encoding/json"
	"fmt"
)

// Channel indexes a Reading.
type Channel int

const (
	Blue415 Channel = iota
	Blue445
	Blue480
	Green515
	Green555
	Green590
	Red630
	Red680
	NIR910
	Clear350to1000
)

// ChannelCount is the number of values returned by every acquisition.
const ChannelCount = 10

var channelNames = [ChannelCount]string{
	"blue_415nm",
	"blue_445nm",
	"blue_480nm",
	"green_515nm",
	"green_555nm",
	"green_590nm",
	"red_630nm",
	"red_680nm",
	"nired_910nm",
	"clear_350nm_1000nm",
}

func (c Channel) String() string {
	if c >= 0 && int(c) < ChannelCount {
		return channelNames[c]
	}
	return fmt.Sprintf("Channel(%d)", int(c))
}

// Channels lists all channels in reading order.
func Channels() []Channel {
	out := make([]Channel, ChannelCount)
	for i := range out {
		out[i] = Channel(i)
	}
	return out
}

// Reading holds raw ADC counts ordered blue (415, 445, 480), green (515, 555, 590),
// red (630, 680), NIR (910) and clear.
type Reading [ChannelCount]uint16

func (r Reading) Get(c Channel) uint16 {
	return r[c]
}

// Named returns the reading keyed by channel name.
func (r Reading) Named() map[string]int {
	out := make(map[string]int, ChannelCount)
	for i, v := range r {
		out[channelNames[i]] = int(v)
	}
	return out
}

// MarshalJSON encodes the reading as an ordered list of counts.
func (r Reading) MarshalJSON() ([]byte, error) {
	vals := make([]int, ChannelCount)
	for i, v := range r {
		vals[i] = int(v)
	}
	return json.Marshal(vals)
}
