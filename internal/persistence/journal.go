package persistence

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/atomic"

	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

// Journal is an api.Observer that appends a RunEvent to an EventStore for
// every lifecycle callback. Store errors are logged and otherwise ignored so
// that a failing store never changes how a runner behaves.
type Journal struct {
	store  EventStore
	logger *slog.Logger
	seq    atomic.Int64
	now    func() time.Time
}

var _ api.Observer = (*Journal)(nil)

// NewJournal creates a journal writing to store. A nil logger means
// slog.Default().
func NewJournal(store EventStore, logger *slog.Logger) *Journal {
	if store == nil {
		store = NoopEventStore{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{store: store, logger: logger, now: time.Now}
}

// Store returns the underlying event store.
func (j *Journal) Store() EventStore { return j.store }

func (j *Journal) OnRunStart(ctx context.Context, runnerID string, m *model.Model) {
	j.append(ctx, api.RunEvent{
		RunnerID: runnerID,
		Type:     api.RunEventStarted,
		Detail:   useCaseNames(m),
	})
}

func (j *Journal) OnRunStop(ctx context.Context, runnerID string) {
	j.append(ctx, api.RunEvent{RunnerID: runnerID, Type: api.RunEventStopped})
}

func (j *Journal) OnStepStart(ctx context.Context, runnerID string, step *model.Step) {
	j.append(ctx, stepEvent(runnerID, api.RunEventStepStarted, step))
}

func (j *Journal) OnStepCompleted(ctx context.Context, runnerID string, step *model.Step, err error, d time.Duration) {
	if err != nil {
		ev := stepEvent(runnerID, api.RunEventStepFailed, step)
		ev.Detail = err.Error()
		j.append(ctx, ev)
		return
	}
	j.append(ctx, stepEvent(runnerID, api.RunEventStepCompleted, step))
}

func (j *Journal) OnEventUnhandled(ctx context.Context, runnerID string, event any) {
	j.append(ctx, api.RunEvent{
		RunnerID: runnerID,
		Type:     api.RunEventUnhandled,
		Event:    api.EventName(event),
	})
}

func (j *Journal) append(ctx context.Context, ev api.RunEvent) {
	ev.Seq = j.seq.Inc()
	ev.At = j.now()
	if err := j.store.AppendEvent(ctx, ev); err != nil {
		j.logger.WarnContext(ctx, "journal_append_failed",
			slog.String("runner_id", ev.RunnerID),
			slog.String("type", string(ev.Type)),
			slog.Any("error", err),
		)
	}
}

func stepEvent(runnerID string, typ api.RunEventType, step *model.Step) api.RunEvent {
	ev := api.RunEvent{
		RunnerID: runnerID,
		Type:     typ,
		UseCase:  step.UseCase().Name(),
		Step:     step.Name(),
	}
	if f := step.Flow(); f != nil {
		ev.Flow = f.Name()
	}
	return ev
}

func useCaseNames(m *model.Model) string {
	if m == nil {
		return ""
	}
	var names []string
	for _, uc := range m.UseCases() {
		names = append(names, uc.Name())
	}
	return strings.Join(names, ",")
}
