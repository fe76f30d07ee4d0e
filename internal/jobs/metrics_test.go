package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("catalog:refresh").End(nil))
	boom := errors.New("boom")
	assert.Equal(t, boom, m.Track("catalog:refresh").End(boom))

	assert.Equal(t, 1.0, counterValue(t, m.runs.WithLabelValues("catalog:refresh", "success")))
	assert.Equal(t, 1.0, counterValue(t, m.runs.WithLabelValues("catalog:refresh", "failure")))
	assert.Equal(t, 1.0, counterValue(t, m.failures.WithLabelValues("catalog:refresh")))
}

func TestAddWarmedPages(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddWarmedPages(3)
	m.AddWarmedPages(0)
	assert.Equal(t, 3.0, counterValue(t, m.warmed))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	err := errors.New("x")
	assert.Equal(t, err, m.Track("job").End(err))
	m.AddWarmedPages(5)
}
