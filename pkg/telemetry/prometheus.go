package telemetry

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// PrometheusObserver records runner activity as Prometheus metrics.
type PrometheusObserver struct {
	runsStarted     prometheus.Counter
	runsActive      prometheus.Gauge
	steps           *prometheus.CounterVec
	stepDuration    *prometheus.HistogramVec
	eventsUnhandled *prometheus.CounterVec
}

var _ api.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver registers the reqflow metrics with reg. A nil reg
// means prometheus.DefaultRegisterer. Registering twice with the same
// registerer panics.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusObserver{
		runsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "reqflow_runs_started_total",
			Help: "Total number of runs started",
		}),
		runsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reqflow_runs_active",
			Help: "Number of runs started and not yet stopped",
		}),
		steps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reqflow_steps_total",
			Help: "Total number of executed steps by use case, step, and outcome (success or error)",
		}, []string{"use_case", "step", "outcome"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reqflow_step_duration_seconds",
			Help:    "Duration of step reactions by use case and step",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}, []string{"use_case", "step"}),
		eventsUnhandled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "reqflow_events_unhandled_total",
			Help: "Total number of events no step reacted to, by event type",
		}, []string{"event"}),
	}
}

func (o *PrometheusObserver) OnRunStart(ctx context.Context, runnerID string, m *model.Model) {
	o.runsStarted.Inc()
	o.runsActive.Inc()
}

func (o *PrometheusObserver) OnRunStop(ctx context.Context, runnerID string) {
	o.runsActive.Dec()
}

func (o *PrometheusObserver) OnStepStart(ctx context.Context, runnerID string, step *model.Step) {}

func (o *PrometheusObserver) OnStepCompleted(ctx context.Context, runnerID string, step *model.Step, err error, d time.Duration) {
	uc := step.UseCase().Name()
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeError
	}
	o.steps.WithLabelValues(uc, step.Name(), outcome).Inc()
	o.stepDuration.WithLabelValues(uc, step.Name()).Observe(d.Seconds())
}

func (o *PrometheusObserver) OnEventUnhandled(ctx context.Context, runnerID string, event any) {
	o.eventsUnhandled.WithLabelValues(api.EventName(event)).Inc()
}
