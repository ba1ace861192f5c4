package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	resolutions     *prometheus.CounterVec
	ingestions      *prometheus.CounterVec
	persistFailures prometheus.Counter
	circuitState    *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_resolutions_total",
			Help: "Weather reports served, by data source.",
		}, []string{"source"}),
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "station_ingestions_total",
			Help: "Station readings stored in the latest-reading slot, by origin.",
		}, []string{"origin"}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "station_persist_failures_total",
			Help: "Station readings that could not be written to durable storage.",
		}),
		circuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "provider_circuit_state",
			Help: "Circuit breaker state per provider (0 closed, 1 half-open, 2 open).",
		}, []string{"provider"}),
	}

	reg.MustRegister(
		m.resolutions,
		m.ingestions,
		m.persistFailures,
		m.circuitState,
	)

	return m
}

// Handler exposes the collectors gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func (m *Metrics) WeatherResolved(source string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source).Inc()
}

func (m *Metrics) StationIngested(origin string) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(origin).Inc()
}

func (m *Metrics) PersistFailed() {
	if m == nil {
		return
	}
	m.persistFailures.Inc()
}

func (m *Metrics) SetCircuitState(provider string, state float64) {
	if m == nil {
		return
	}
	m.circuitState.WithLabelValues(provider).Set(state)
}
