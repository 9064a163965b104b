package spectral

import (
	"fmt"
	"strings"

	"github.com/mklimuk/hegemone"
)

// Quality is the relative light quality index: the share, in whole percent, of
// blue, green and red light in the sum of the three.
type Quality struct {
	Blue  int `json:"blue" yaml:"blue"`
	Green int `json:"green" yaml:"green"`
	Red   int `json:"red" yaml:"red"`
}

// RLQI groups channels by the color in their name. nired_910nm contains "red"
// and is counted with the red channels.
func RLQI(r Reading) (Quality, error) {
	var blue, green, red int
	for i, v := range r {
		name := channelNames[i]
		switch {
		case strings.Contains(name, "blue"):
			blue += int(v)
		case strings.Contains(name, "green"):
			green += int(v)
		case strings.Contains(name, "red"):
			red += int(v)
		}
	}
	total := blue + green + red
	if total == 0 {
		return Quality{}, fmt.Errorf("rlqi: no blue, green or red light: %w", hegemone.ErrOutOfRange)
	}
	return Quality{
		Blue:  blue * 100 / total,
		Green: green * 100 / total,
		Red:   red * 100 / total,
	}, nil
}
