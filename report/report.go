// Package report assembles one combined plant reading out of all sensors.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.uber.org/multierr"

	"github.com/mklimuk/hegemone/spectral"
)

// DefaultDeviceID identifies the monitor in emitted reports.
const DefaultDeviceID = "PlantyPlantMonitor"

type SoilSensor interface {
	ReadMoisture(ctx context.Context) (int, error)
	ReadTemperature(ctx context.Context) (float64, error)
}

type LightSensor interface {
	ReadWhite(ctx context.Context) (int, error)
}

type Spectrometer interface {
	PhotonFlux(ctx context.Context) (spectral.Reading, error)
}

type Thermometer interface {
	ReadTemperature(ctx context.Context) (float64, error)
}

// Light summarizes the light quality. Red, blue and green are RLQI percentages;
// white is the raw ambient light count.
type Light struct {
	Red    int `json:"red" yaml:"red"`
	Blue   int `json:"blue" yaml:"blue"`
	Green  int `json:"green" yaml:"green"`
	White  int `json:"white" yaml:"white"`
	FarRed int `json:"far_red" yaml:"far_red"`
}

// Reading is one combined report. Zero values mark measurements that failed.
type Reading struct {
	DeviceID      string           `json:"device_id" yaml:"device_id"`
	Timestamp     time.Time        `json:"timestamp" yaml:"timestamp"`
	MoistureLevel int              `json:"moisture_level" yaml:"moisture_level"`
	SoilTemp      float64          `json:"soil_temp" yaml:"soil_temp"`
	AmbientTemp   float64          `json:"ambient_temp" yaml:"ambient_temp"`
	SpectralData  spectral.Reading `json:"spectral_data" yaml:"spectral_data"`
	Light         Light            `json:"light_measurement" yaml:"light_measurement"`
	RLQI          spectral.Quality `json:"rlqi" yaml:"rlqi"`
}

// Field is one flattened value of a Reading.
type Field struct {
	Name  string
	Value any
}

// Fields flattens the reading for column oriented sinks. Nested keys are joined
// with '_' and list items get their index appended. The timestamp is not
// included.
func (r Reading) Fields() []Field {
	fields := []Field{
		{"device_id", r.DeviceID},
		{"moisture_level", int64(r.MoistureLevel)},
		{"soil_temp", r.SoilTemp},
		{"ambient_temp", r.AmbientTemp},
	}
	for i, v := range r.SpectralData {
		fields = append(fields, Field{"spectral_data_" + strconv.Itoa(i), int64(v)})
	}
	return append(fields,
		Field{"light_measurement_red", int64(r.Light.Red)},
		Field{"light_measurement_blue", int64(r.Light.Blue)},
		Field{"light_measurement_green", int64(r.Light.Green)},
		Field{"light_measurement_white", int64(r.Light.White)},
		Field{"light_measurement_far_red", int64(r.Light.FarRed)},
		Field{"rlqi_blue", int64(r.RLQI.Blue)},
		Field{"rlqi_green", int64(r.RLQI.Green)},
		Field{"rlqi_red", int64(r.RLQI.Red)},
	)
}

type CollectorOpts struct {
	DeviceID    string
	Soil        SoilSensor
	Light       LightSensor
	Spectral    Spectrometer
	Thermometer Thermometer
	Clock       func() time.Time
}

type CollectorOpt func(*CollectorOpts)

func WithDeviceID(id string) CollectorOpt {
	return func(o *CollectorOpts) {
		o.DeviceID = id
	}
}

func WithSoil(s SoilSensor) CollectorOpt {
	return func(o *CollectorOpts) {
		o.Soil = s
	}
}

func WithLight(s LightSensor) CollectorOpt {
	return func(o *CollectorOpts) {
		o.Light = s
	}
}

func WithSpectrometer(s Spectrometer) CollectorOpt {
	return func(o *CollectorOpts) {
		o.Spectral = s
	}
}

func WithThermometer(s Thermometer) CollectorOpt {
	return func(o *CollectorOpts) {
		o.Thermometer = s
	}
}

func WithClock(clock func() time.Time) CollectorOpt {
	return func(o *CollectorOpts) {
		o.Clock = clock
	}
}

// Collector reads every configured sensor once per Collect call. Sensors that
// are not configured are skipped and leave their fields at zero.
type Collector struct {
	config CollectorOpts
}

func NewCollector(opts ...CollectorOpt) *Collector {
	config := CollectorOpts{
		DeviceID: DefaultDeviceID,
		Clock:    time.Now,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Collector{config: config}
}

// Collect reads all sensors. A failing sensor does not stop the others: the
// returned reading is always complete and err combines every failure.
func (c *Collector) Collect(ctx context.Context) (Reading, error) {
	r := Reading{
		DeviceID:  c.config.DeviceID,
		Timestamp: c.config.Clock(),
	}
	var err error
	if c.config.Soil != nil {
		m, e := c.config.Soil.ReadMoisture(ctx)
		r.MoistureLevel = m
		err = multierr.Append(err, e)
		t, e := c.config.Soil.ReadTemperature(ctx)
		r.SoilTemp = t
		err = multierr.Append(err, e)
	}
	if c.config.Thermometer != nil {
		t, e := c.config.Thermometer.ReadTemperature(ctx)
		r.AmbientTemp = t
		err = multierr.Append(err, e)
	}
	if c.config.Spectral != nil {
		flux, e := c.config.Spectral.PhotonFlux(ctx)
		err = multierr.Append(err, e)
		if e == nil {
			r.SpectralData = flux
			q, e := spectral.RLQI(flux)
			if e != nil {
				slog.Debug("light quality unavailable", "error", e)
			}
			r.RLQI = q
			r.Light.Red = q.Red
			r.Light.Blue = q.Blue
			r.Light.Green = q.Green
			r.Light.FarRed = q.Red / 2
		}
	}
	if c.config.Light != nil {
		w, e := c.config.Light.ReadWhite(ctx)
		r.Light.White = w
		err = multierr.Append(err, e)
	}
	if err != nil {
		return r, fmt.Errorf("report: %d sensor(s) failed: %w", len(multierr.Errors(err)), err)
	}
	return r, nil
}
