package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/petrijr/reqflow/pkg/api"
)

func TestInMemoryEventStore_AppendAndList(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryEventStore()

	events := []api.RunEvent{
		{RunnerID: "r-1", Seq: 1, Type: api.RunEventStarted},
		{RunnerID: "r-2", Seq: 2, Type: api.RunEventStarted},
		{RunnerID: "r-1", Seq: 3, Type: api.RunEventStepStarted, Step: "Customer pays"},
	}
	for _, ev := range events {
		if err := store.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	got, err := store.ListEvents(ctx, "r-1")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Seq != 1 || got[1].Seq != 3 {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].At.IsZero() {
		t.Fatalf("expected At to be set")
	}

	ids := store.RunnerIDs()
	if len(ids) != 2 || ids[0] != "r-1" || ids[1] != "r-2" {
		t.Fatalf("unexpected runner ids: %v", ids)
	}
}

func TestInMemoryEventStore_ListUnknownRunner(t *testing.T) {
	got, err := NewInMemoryEventStore().ListEvents(context.Background(), "missing")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no events, got %+v", got)
	}
}

func TestInMemoryEventStore_RejectsEmptyRunnerID(t *testing.T) {
	err := NewInMemoryEventStore().AppendEvent(context.Background(), api.RunEvent{Type: api.RunEventStarted})
	if !errors.Is(err, ErrEmptyRunnerID) {
		t.Fatalf("expected ErrEmptyRunnerID, got %v", err)
	}
}

func TestInMemoryEventStore_ListReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryEventStore()
	if err := store.AppendEvent(ctx, api.RunEvent{RunnerID: "r-1", Step: "a"}); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	got, _ := store.ListEvents(ctx, "r-1")
	got[0].Step = "changed"

	again, _ := store.ListEvents(ctx, "r-1")
	if again[0].Step != "a" {
		t.Fatalf("store was modified through returned slice")
	}
}
