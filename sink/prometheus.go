package sink

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mklimuk/hegemone/report"
	"github.com/mklimuk/hegemone/spectral"
)

// Prometheus keeps the last reading as gauges and serves them on Handler.
type Prometheus struct {
	registry    *prometheus.Registry
	moisture    *prometheus.GaugeVec
	soilTemp    *prometheus.GaugeVec
	ambientTemp *prometheus.GaugeVec
	spectral    *prometheus.GaugeVec
	white       *prometheus.GaugeVec
	rlqi        *prometheus.GaugeVec
	timestamp   *prometheus.GaugeVec
}

func newGauge(name string, help string, labels ...string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "hegemone",
			Name:      name,
			Help:      help,
		},
		append([]string{"device_id"}, labels...),
	)
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry:    prometheus.NewRegistry(),
		moisture:    newGauge("soil_moisture", "Soil moisture (units: raw capacitive count 0..4095)"),
		soilTemp:    newGauge("soil_temperature", "Soil temperature (units: degrees Celsius)"),
		ambientTemp: newGauge("ambient_temperature", "Air temperature (units: degrees Celsius)"),
		spectral:    newGauge("spectral_counts", "Spectrometer channel (units: raw ADC count)", "channel"),
		white:       newGauge("white_light", "Ambient white light (units: raw count)"),
		rlqi:        newGauge("rlqi", "Relative light quality index (units: % of blue+green+red)", "color"),
		timestamp:   newGauge("last_reading_timestamp_seconds", "Time of the last reading"),
	}
	p.registry.MustRegister(p.moisture, p.soilTemp, p.ambientTemp, p.spectral, p.white, p.rlqi, p.timestamp)
	p.registry.MustRegister(collectors.NewBuildInfoCollector())
	return p
}

func (p *Prometheus) Name() string {
	return "prometheus"
}

func (p *Prometheus) Submit(ctx context.Context, r report.Reading) error {
	id := r.DeviceID
	p.moisture.WithLabelValues(id).Set(float64(r.MoistureLevel))
	p.soilTemp.WithLabelValues(id).Set(r.SoilTemp)
	p.ambientTemp.WithLabelValues(id).Set(r.AmbientTemp)
	for _, ch := range spectral.Channels() {
		p.spectral.WithLabelValues(id, ch.String()).Set(float64(r.SpectralData.Get(ch)))
	}
	p.white.WithLabelValues(id).Set(float64(r.Light.White))
	p.rlqi.WithLabelValues(id, "blue").Set(float64(r.RLQI.Blue))
	p.rlqi.WithLabelValues(id, "green").Set(float64(r.RLQI.Green))
	p.rlqi.WithLabelValues(id, "red").Set(float64(r.RLQI.Red))
	p.timestamp.WithLabelValues(id).Set(float64(r.Timestamp.Unix()))
	return nil
}

// Registry exposes the gauges for tests and additional collectors.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
