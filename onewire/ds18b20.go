// Package onewire reads DS18B20 temperature probes exposed by the Linux w1-therm
// driver under sysfs.
package onewire

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
)

const (
	DefaultMasterDir = "/sys/bus/w1/devices/w1_bus_master1"
	DefaultDeviceID  = "28-0033c3000096"
)

var (
	ErrNoReading = errors.New("no temperature in w1_slave output")
	ErrCRC       = errors.New("w1_slave CRC check failed")
)

// DS18B20 reads one probe attached to a w1 bus master. The kernel driver
// performs the conversion on every read of w1_slave, which takes up to 750 ms.
type DS18B20 struct {
	fsys fs.FS
	name string
	id   string
}

// NewDS18B20 reads the probe id from the bus master directory dir.
func NewDS18B20(dir, id string) *DS18B20 {
	return NewDS18B20FS(os.DirFS(dir), id)
}

func NewDS18B20FS(fsys fs.FS, id string) *DS18B20 {
	return &DS18B20{fsys: fsys, id: id, name: path.Join(id, "w1_slave")}
}

func (s *DS18B20) String() string {
	return "ds18b20-" + s.id
}

// ReadTemperature returns the probe temperature in degrees Celsius.
func (s *DS18B20) ReadTemperature(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	f, err := s.fsys.Open(s.name)
	if err != nil {
		return 0, fmt.Errorf("ds18b20: could not open probe: %w", err)
	}
	defer f.Close()
	temp, err := parseSlave(f)
	if err != nil {
		return 0, fmt.Errorf("ds18b20 %s: %w", s.id, err)
	}
	return temp, nil
}

// parseSlave reads the two line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parseSlave(f fs.File) (float64, error) {
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "crc=") && strings.HasSuffix(line, "NO") {
			return 0, ErrCRC
		}
		i := strings.Index(line, "t=")
		if i < 0 {
			continue
		}
		milli, err := strconv.Atoi(line[i+2:])
		if err != nil {
			return 0, fmt.Errorf("invalid temperature %q: %w", line[i+2:], err)
		}
		return float64(milli) / 1000, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, ErrNoReading
}

// Probes lists the DS18B20 family (0x28) devices present under fsys.
func Probes(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "28-") {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}
