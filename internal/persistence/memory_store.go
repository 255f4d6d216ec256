package persistence

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/petrijr/reqflow/pkg/api"
)

// InMemoryEventStore is a simple, goroutine-safe EventStore backed by a map.
type InMemoryEventStore struct {
	mu     sync.RWMutex
	events map[string][]api.RunEvent
}

// NewInMemoryEventStore creates a new InMemoryEventStore.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		events: make(map[string][]api.RunEvent),
	}
}

// Ensure InMemoryEventStore implements the interface.
var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	if err := ValidateEvent(ev); err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.RunnerID] = append(s.events[ev.RunnerID], ev)
	return nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, runnerID string) ([]api.RunEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.events[runnerID]), nil
}

// RunnerIDs returns the ids of all runners with recorded events, sorted.
func (s *InMemoryEventStore) RunnerIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.events))
	for id := range s.events {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
