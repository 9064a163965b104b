// Package config holds the monitor configuration read from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "/etc/hegemone.yaml"

const (
	AdapterLinux   = "linux"
	AdapterMCP2221 = "mcp2221"
	AdapterNanoPi  = "nanopi"
	AdapterMock    = "mock"
)

var ErrInvalid = errors.New("invalid configuration")

// Duration reads Go duration strings such as "1600us" or "5s".
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

type I2C struct {
	Adapter string `yaml:"adapter"`
	Device  string `yaml:"device"`
	// MCP2221Index selects the bridge when several are connected.
	MCP2221Index int `yaml:"mcp2221_index"`
	SpeedKHz     int `yaml:"speed_khz"`
}

type Soil struct {
	Enabled          bool     `yaml:"enabled"`
	SettleDelay      Duration `yaml:"settle_delay"`
	ReadDelay        Duration `yaml:"read_delay"`
	MoistureAttempts int      `yaml:"moisture_attempts"`
}

type Light struct {
	Enabled     bool     `yaml:"enabled"`
	SettleDelay Duration `yaml:"settle_delay"`
}

type Spectral struct {
	Enabled         bool     `yaml:"enabled"`
	PollInterval    Duration `yaml:"poll_interval"`
	SmuxSettleDelay Duration `yaml:"smux_settle_delay"`
	// PollTimeout of zero polls forever.
	PollTimeout Duration `yaml:"poll_timeout"`
}

type OneWire struct {
	Enabled   bool   `yaml:"enabled"`
	MasterDir string `yaml:"master_dir"`
	DeviceID  string `yaml:"device_id"`
}

type LogSink struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}

type HTTPSink struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

type QuestDBSink struct {
	// Conf is a client configuration string, e.g. "tcp::addr=localhost:9009;".
	Conf  string `yaml:"conf"`
	Table string `yaml:"table"`
}

type PrometheusSink struct {
	Listen string `yaml:"listen"`
}

type FileSink struct {
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type Sinks struct {
	Log        LogSink        `yaml:"log"`
	HTTP       HTTPSink       `yaml:"http"`
	QuestDB    QuestDBSink    `yaml:"questdb"`
	Prometheus PrometheusSink `yaml:"prometheus"`
	File       FileSink       `yaml:"file"`
}

type Config struct {
	DeviceID     string   `yaml:"device_id"`
	Interval     Duration `yaml:"interval"`
	CycleTimeout Duration `yaml:"cycle_timeout"`
	SelfTest     bool     `yaml:"self_test"`
	I2C          I2C      `yaml:"i2c"`
	Soil         Soil     `yaml:"soil"`
	Light        Light    `yaml:"light"`
	Spectral     Spectral `yaml:"spectral"`
	OneWire      OneWire  `yaml:"onewire"`
	Sinks        Sinks    `yaml:"sinks"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DeviceID:     "PlantyPlantMonitor",
		Interval:     Duration(time.Second),
		CycleTimeout: Duration(30 * time.Second),
		SelfTest:     true,
		I2C: I2C{
			Adapter:  AdapterLinux,
			Device:   "/dev/i2c-1",
			SpeedKHz: 100,
		},
		Soil: Soil{
			Enabled:          true,
			SettleDelay:      Duration(1600 * time.Microsecond),
			ReadDelay:        Duration(800 * time.Microsecond),
			MoistureAttempts: 4,
		},
		Light: Light{
			Enabled:     true,
			SettleDelay: Duration(500 * time.Microsecond),
		},
		Spectral: Spectral{
			Enabled:         true,
			PollInterval:    Duration(400 * time.Microsecond),
			SmuxSettleDelay: Duration(500 * time.Microsecond),
			PollTimeout:     Duration(5 * time.Second),
		},
		OneWire: OneWire{
			Enabled:   true,
			MasterDir: "/sys/bus/w1/devices/w1_bus_master1",
			DeviceID:  "28-0033c3000096",
		},
		Sinks: Sinks{
			Log:  LogSink{Enabled: true, Level: "debug"},
			HTTP: HTTPSink{Timeout: Duration(5 * time.Second)},
			QuestDB: QuestDBSink{
				Table: "hegemone_sensors",
			},
			File: FileSink{
				Path:       "/var/log/hegemone-data.dmp",
				MaxSizeMB:  50,
				MaxBackups: 5,
				MaxAgeDays: 30,
			},
		},
	}
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var err error
	invalid := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	if c.Interval <= 0 {
		invalid("interval must be positive")
	}
	switch c.I2C.Adapter {
	case AdapterLinux:
		if c.I2C.Device == "" {
			invalid("i2c device is required for the linux adapter")
		}
	case AdapterMCP2221, AdapterNanoPi, AdapterMock:
	default:
		invalid("unknown i2c adapter %q", c.I2C.Adapter)
	}
	if c.Soil.Enabled && c.Soil.MoistureAttempts < 1 {
		invalid("soil moisture_attempts must be at least 1")
	}
	if c.Spectral.Enabled && c.Spectral.PollInterval <= 0 {
		invalid("spectral poll_interval must be positive")
	}
	if c.Spectral.PollTimeout < 0 {
		invalid("spectral poll_timeout cannot be negative")
	}
	if c.OneWire.Enabled && (c.OneWire.MasterDir == "" || c.OneWire.DeviceID == "") {
		invalid("onewire master_dir and device_id are required")
	}
	return err
}

// Marshal renders the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
