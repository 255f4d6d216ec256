package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusObserver_RecordsRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPrometheusObserver(reg)

	runCheckout(t, obs)

	assert.InDelta(t, 1, promtest.ToFloat64(obs.runsStarted), 0)
	assert.InDelta(t, 0, promtest.ToFloat64(obs.runsActive), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(obs.steps.WithLabelValues("Checkout", "Customer enters card", outcomeSuccess)), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(obs.steps.WithLabelValues("Checkout", "System charges card", outcomeError)), 0)
	assert.InDelta(t, 1, promtest.ToFloat64(obs.eventsUnhandled.WithLabelValues("telemetry.voucher")), 0)

	assert.Equal(t, 2, promtest.CollectAndCount(obs.stepDuration))
}

func TestPrometheusObserver_RegistersMetricNames(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPrometheusObserver(reg)
	runCheckout(t, obs)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.ElementsMatch(t, []string{
		"reqflow_runs_started_total",
		"reqflow_runs_active",
		"reqflow_steps_total",
		"reqflow_step_duration_seconds",
		"reqflow_events_unhandled_total",
	}, names)
}

func TestPrometheusObserver_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusObserver(reg)
	assert.Panics(t, func() { NewPrometheusObserver(reg) })
}
