package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/atomic"

	"github.com/petrijr/reqflow/pkg/model"
)

// Observer receives callbacks from a runner for logging and metrics.
//
// Callbacks run synchronously on the goroutine driving the runner.
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay reactions.
type Observer interface {
	// OnRunStart is called when Run starts a model, before any autonomous
	// step reacts.
	OnRunStart(ctx context.Context, runnerID string, m *model.Model)

	// OnRunStop is called when Stop stops a running runner.
	OnRunStop(ctx context.Context, runnerID string)

	// OnStepStart is called before the step handler runs a matched step.
	OnStepStart(ctx context.Context, runnerID string, step *model.Step)

	// OnStepCompleted is called after the step handler returns, for both
	// successes and failures (err != nil).
	OnStepCompleted(ctx context.Context, runnerID string, step *model.Step, err error, duration time.Duration)

	// OnEventUnhandled is called when no step is eligible for an event.
	OnEventUnhandled(ctx context.Context, runnerID string, event any)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRunStart(ctx context.Context, runnerID string, m *model.Model)    {}
func (NoopObserver) OnRunStop(ctx context.Context, runnerID string)                     {}
func (NoopObserver) OnStepStart(ctx context.Context, runnerID string, step *model.Step) {}
func (NoopObserver) OnEventUnhandled(ctx context.Context, runnerID string, event any)   {}
func (NoopObserver) OnStepCompleted(ctx context.Context, runnerID string, step *model.Step, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRunStart(ctx context.Context, runnerID string, m *model.Model) {
	for _, o := range c.observers {
		o.OnRunStart(ctx, runnerID, m)
	}
}

func (c *CompositeObserver) OnRunStop(ctx context.Context, runnerID string) {
	for _, o := range c.observers {
		o.OnRunStop(ctx, runnerID)
	}
}

func (c *CompositeObserver) OnStepStart(ctx context.Context, runnerID string, step *model.Step) {
	for _, o := range c.observers {
		o.OnStepStart(ctx, runnerID, step)
	}
}

func (c *CompositeObserver) OnStepCompleted(ctx context.Context, runnerID string, step *model.Step, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnStepCompleted(ctx, runnerID, step, err, d)
	}
}

func (c *CompositeObserver) OnEventUnhandled(ctx context.Context, runnerID string, event any) {
	for _, o := range c.observers {
		o.OnEventUnhandled(ctx, runnerID, event)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs run / step lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRunStart(ctx context.Context, runnerID string, m *model.Model) {
	o.Logger.InfoContext(ctx, "run_start",
		slog.String("runner_id", runnerID),
		slog.Int("use_cases", len(m.UseCases())),
		slog.Int("steps", len(m.Steps())),
	)
}

func (o *LoggingObserver) OnRunStop(ctx context.Context, runnerID string) {
	o.Logger.InfoContext(ctx, "run_stop",
		slog.String("runner_id", runnerID),
	)
}

func (o *LoggingObserver) OnStepStart(ctx context.Context, runnerID string, step *model.Step) {
	o.Logger.DebugContext(ctx, "step_start",
		slog.String("runner_id", runnerID),
		slog.String("use_case", step.UseCase().Name()),
		slog.String("step", step.Name()),
		slog.String("kind", step.Kind().String()),
	)
}

func (o *LoggingObserver) OnStepCompleted(ctx context.Context, runnerID string, step *model.Step, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "step_completed",
		slog.String("runner_id", runnerID),
		slog.String("use_case", step.UseCase().Name()),
		slog.String("step", step.Name()),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnEventUnhandled(ctx context.Context, runnerID string, event any) {
	o.Logger.DebugContext(ctx, "event_unhandled",
		slog.String("runner_id", runnerID),
		slog.String("event", EventName(event)),
	)
}

// BasicMetrics collects simple counters and aggregate step durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	runsStarted       atomic.Int64
	runsStopped       atomic.Int64
	stepsCompleted    atomic.Int64
	stepsFailed       atomic.Int64
	eventsUnhandled   atomic.Int64
	totalStepDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	RunsStarted int64
	RunsStopped int64
	ActiveRuns  int64

	StepsCompleted  int64
	StepsFailed     int64
	EventsUnhandled int64
	AvgStepDuration time.Duration
}

func (m *BasicMetrics) OnRunStart(ctx context.Context, runnerID string, _ *model.Model) {
	m.runsStarted.Inc()
}

func (m *BasicMetrics) OnRunStop(ctx context.Context, runnerID string) {
	m.runsStopped.Inc()
}

func (m *BasicMetrics) OnStepStart(ctx context.Context, runnerID string, step *model.Step) {}

func (m *BasicMetrics) OnStepCompleted(ctx context.Context, runnerID string, step *model.Step, err error, d time.Duration) {
	// Only successful steps count towards the average duration.
	if err != nil {
		m.stepsFailed.Inc()
		return
	}
	m.stepsCompleted.Inc()
	m.totalStepDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnEventUnhandled(ctx context.Context, runnerID string, event any) {
	m.eventsUnhandled.Inc()
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.runsStarted.Load()
	stopped := m.runsStopped.Load()
	steps := m.stepsCompleted.Load()
	totalNs := m.totalStepDuration.Load()

	var avg time.Duration
	if steps > 0 {
		avg = time.Duration(totalNs / steps)
	}

	return BasicMetricsSnapshot{
		RunsStarted:     started,
		RunsStopped:     stopped,
		ActiveRuns:      started - stopped,
		StepsCompleted:  steps,
		StepsFailed:     m.stepsFailed.Load(),
		EventsUnhandled: m.eventsUnhandled.Load(),
		AvgStepDuration: avg,
	}
}

// EventName returns a short, payload-free description of event for logs and
// journals: the dynamic Go type, or "system" for the system event.
func EventName(event any) string {
	if model.IsSystemEvent(event) {
		return "system"
	}
	if event == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", event)
}
