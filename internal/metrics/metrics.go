package metrics

import (
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the Prometheus collectors of the request pipeline
type Metrics struct {
	registry *prometheus.Registry

	InFlight        prometheus.Gauge
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers the pipeline metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "payhub_client_inflight_requests",
			Help: "Number of outbound requests currently tracked by the busy indicator",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payhub_client_requests_total",
			Help: "Total number of outbound requests by method and status code",
		}, []string{"method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payhub_client_request_duration_seconds",
			Help:    "Outbound request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(m.InFlight, m.RequestsTotal, m.RequestDuration)
	return m
}

// InFlightChanged implements busy.Observer
func (m *Metrics) InFlightChanged(n int) {
	m.InFlight.Set(float64(n))
}

// InstrumentRoundTripper wraps next with request counting and latency
func (m *Metrics) InstrumentRoundTripper(next http.RoundTripper) http.RoundTripper {
	return promhttp.InstrumentRoundTripperCounter(m.RequestsTotal,
		promhttp.InstrumentRoundTripperDuration(m.RequestDuration, next))
}

// WriteText writes all metrics in the Prometheus text exposition format
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
