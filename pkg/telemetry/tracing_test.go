package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/petrijr/reqflow/pkg/model"
)

// setupTestTracer creates a tracer provider with an in-memory exporter.
func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return tp, exporter
}

func attrMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value.AsInterface()
	}
	return out
}

func TestTracingObserver_SpansPerStep(t *testing.T) {
	tp, exporter := setupTestTracer(t)

	runCheckout(t, NewTracingObserver(tp))

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	// Spans are exported when they end: both steps, then the run.
	enter, charge, run := spans[0], spans[1], spans[2]
	assert.Equal(t, "step.Customer enters card", enter.Name)
	assert.Equal(t, "step.System charges card", charge.Name)
	assert.Equal(t, "reqflow.run", run.Name)

	assert.Equal(t, run.SpanContext.SpanID(), enter.Parent.SpanID())
	assert.Equal(t, run.SpanContext.SpanID(), charge.Parent.SpanID())

	attrs := attrMap(enter.Attributes)
	assert.Equal(t, "Checkout", attrs["use_case"])
	assert.Equal(t, model.BasicFlowName, attrs["flow"])
	assert.Equal(t, "r-1", attrs["runner_id"])

	assert.Equal(t, codes.Unset, enter.Status.Code)
	assert.Equal(t, codes.Error, charge.Status.Code)
	assert.Equal(t, "declined", charge.Status.Description)

	require.Len(t, run.Events, 1)
	assert.Equal(t, "event.unhandled", run.Events[0].Name)
	assert.Equal(t, "telemetry.voucher", attrMap(run.Events[0].Attributes)["event"])
	assert.Equal(t, []string{"Checkout"}, attrMap(run.Attributes)["use_cases"])
}

func TestTracingObserver_StopEndsOpenSpans(t *testing.T) {
	tp, exporter := setupTestTracer(t)
	obs := NewTracingObserver(tp)
	ctx := context.Background()

	m := model.NewBuilder().
		UseCase("Checkout").
		BasicFlow().
		Step("Customer enters card").On(model.TypeOf[cardEntered]()).System(model.Run(func(context.Context) error { return nil })).
		Build()
	step := m.UseCase("Checkout").Step("Customer enters card")

	obs.OnRunStart(ctx, "r-2", m)
	obs.OnStepStart(ctx, "r-2", step)
	obs.OnRunStop(ctx, "r-2")

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "step.Customer enters card", spans[0].Name)
	assert.Equal(t, "reqflow.run", spans[1].Name)

	// Completing a step of a stopped run is a no-op.
	obs.OnStepCompleted(ctx, "r-2", step, nil, 0)
	assert.Len(t, exporter.GetSpans(), 2)
}

func TestTracingObserver_StepWithoutRun(t *testing.T) {
	tp, exporter := setupTestTracer(t)
	obs := NewTracingObserver(tp)
	ctx := context.Background()

	m := model.NewBuilder().
		UseCase("Checkout").
		BasicFlow().
		Step("Customer enters card").On(model.TypeOf[cardEntered]()).System(model.Run(func(context.Context) error { return nil })).
		Build()
	step := m.UseCase("Checkout").Step("Customer enters card")

	obs.OnStepStart(ctx, "r-3", step)
	obs.OnStepCompleted(ctx, "r-3", step, nil, 0)
	obs.OnEventUnhandled(ctx, "r-3", voucher{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.False(t, spans[0].Parent.IsValid())
	assert.Empty(t, obs.runs)
}
