package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.WeatherResolved("mock")
	m.WeatherResolved("mock")
	m.WeatherResolved("station")
	m.StationIngested("http")
	m.PersistFailed()
	m.SetCircuitState("open-meteo", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.resolutions.WithLabelValues("mock")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.resolutions.WithLabelValues("station")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestions.WithLabelValues("http")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.persistFailures))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.circuitState.WithLabelValues("open-meteo")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `weather_resolutions_total{source="mock"} 2`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.WeatherResolved("mock")
		m.StationIngested("mqtt")
		m.PersistFailed()
		m.SetCircuitState("open-meteo", 0)
	})
}
