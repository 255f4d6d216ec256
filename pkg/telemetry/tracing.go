package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

const tracerName = "github.com/petrijr/reqflow"

// TracingObserver creates one span per run ("reqflow.run") and one child
// span per executed step ("step.<name>"). Unhandled events are recorded as
// span events on the run span.
type TracingObserver struct {
	tracer trace.Tracer

	mu   sync.Mutex
	runs map[string]*runSpans
}

type runSpans struct {
	run   trace.Span
	steps []trace.Span
}

var _ api.Observer = (*TracingObserver)(nil)

// NewTracingObserver creates a tracing observer. A nil tp means the global
// tracer provider.
func NewTracingObserver(tp trace.TracerProvider) *TracingObserver {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &TracingObserver{
		tracer: tp.Tracer(tracerName),
		runs:   make(map[string]*runSpans),
	}
}

func (o *TracingObserver) OnRunStart(ctx context.Context, runnerID string, m *model.Model) {
	_, span := o.tracer.Start(ctx, "reqflow.run")
	span.SetAttributes(
		attribute.String("runner_id", runnerID),
		attribute.StringSlice("use_cases", useCaseNames(m)),
	)

	o.mu.Lock()
	defer o.mu.Unlock()
	if prev, ok := o.runs[runnerID]; ok {
		prev.end()
	}
	o.runs[runnerID] = &runSpans{run: span}
}

func (o *TracingObserver) OnRunStop(ctx context.Context, runnerID string) {
	o.mu.Lock()
	rs, ok := o.runs[runnerID]
	delete(o.runs, runnerID)
	o.mu.Unlock()

	if ok {
		rs.end()
	}
}

func (o *TracingObserver) OnStepStart(ctx context.Context, runnerID string, step *model.Step) {
	o.mu.Lock()
	defer o.mu.Unlock()

	parent := ctx
	rs, ok := o.runs[runnerID]
	if ok && rs.run != nil {
		parent = trace.ContextWithSpan(ctx, rs.run)
	} else if !ok {
		rs = &runSpans{}
		o.runs[runnerID] = rs
	}

	_, span := o.tracer.Start(parent, "step."+step.Name())
	attrs := []attribute.KeyValue{
		attribute.String("runner_id", runnerID),
		attribute.String("use_case", step.UseCase().Name()),
		attribute.String("step", step.Name()),
		attribute.String("kind", step.Kind().String()),
	}
	if f := step.Flow(); f != nil {
		attrs = append(attrs, attribute.String("flow", f.Name()))
	}
	span.SetAttributes(attrs...)
	rs.steps = append(rs.steps, span)
}

func (o *TracingObserver) OnStepCompleted(ctx context.Context, runnerID string, step *model.Step, err error, d time.Duration) {
	o.mu.Lock()
	rs, ok := o.runs[runnerID]
	if !ok || len(rs.steps) == 0 {
		o.mu.Unlock()
		return
	}
	span := rs.steps[len(rs.steps)-1]
	rs.steps = rs.steps[:len(rs.steps)-1]
	if rs.run == nil && len(rs.steps) == 0 {
		delete(o.runs, runnerID)
	}
	o.mu.Unlock()

	span.SetAttributes(attribute.Int64("duration_ms", d.Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (o *TracingObserver) OnEventUnhandled(ctx context.Context, runnerID string, event any) {
	o.mu.Lock()
	rs, ok := o.runs[runnerID]
	o.mu.Unlock()

	if !ok || rs.run == nil {
		return
	}
	rs.run.AddEvent("event.unhandled", trace.WithAttributes(
		attribute.String("event", api.EventName(event)),
	))
}

// end ends open step spans and then the run span.
func (rs *runSpans) end() {
	for i := len(rs.steps) - 1; i >= 0; i-- {
		rs.steps[i].End()
	}
	rs.steps = nil
	if rs.run != nil {
		rs.run.End()
	}
}

func useCaseNames(m *model.Model) []string {
	if m == nil {
		return nil
	}
	var names []string
	for _, uc := range m.UseCases() {
		names = append(names, uc.Name())
	}
	return names
}
