package telemetry

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	assert.NotPanics(t, func() {
		MustRegister(reg)
		MustRegister(reg)
	})

	metrics, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, metrics)
}

func TestEventsPumpedCountsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	EventsPumped.Reset()
	require.NoError(t, reg.Register(EventsPumped))

	EventsPumped.WithLabelValues("synchronous").Inc()
	EventsPumped.WithLabelValues("detachable").Inc()
	EventsPumped.WithLabelValues("synchronous").Inc()

	assert.InDelta(t, 2.0, testCounterValue(t, EventsPumped.WithLabelValues("synchronous")), 1e-9)
}

func testCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.(prometheus.Metric).Write(&m))
	return m.GetCounter().GetValue()
}
