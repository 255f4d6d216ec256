package persistence

import (
	"context"
	"errors"

	"github.com/petrijr/reqflow/pkg/api"
)

// ErrEmptyRunnerID is returned when an event without a runner id is appended.
var ErrEmptyRunnerID = errors.New("run event has no runner id")

// EventStore is an append-only history store for run events.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.RunEvent) error
	// ListEvents returns the events of a runner in append order.
	ListEvents(ctx context.Context, runnerID string) ([]api.RunEvent, error)
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, runnerID string) ([]api.RunEvent, error) {
	return nil, nil
}

// ValidateEvent checks the fields every store requires.
func ValidateEvent(ev api.RunEvent) error {
	if ev.RunnerID == "" {
		return ErrEmptyRunnerID
	}
	return nil
}
