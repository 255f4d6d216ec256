package taskqueue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestInMemoryQueue_EnqueueDequeueOrder(t *testing.T) {
	q := NewInMemoryQueue(10)

	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		if err := q.Enqueue(ctx, Task{ID: id, Type: TaskTypeReact, Events: []any{id}}); err != nil {
			t.Fatalf("Enqueue %s failed: %v", id, err)
		}
	}

	if q.Len() != 3 {
		t.Fatalf("expected Len 3, got %d", q.Len())
	}

	for _, want := range []string{"1", "2", "3"} {
		got, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("Dequeue failed: %v", err)
		}
		if got.ID != want || got.Events[0] != want {
			t.Fatalf("expected task %q, got %+v", want, got)
		}
	}

	if q.Len() != 0 {
		t.Fatalf("expected Len 0 after dequeues, got %d", q.Len())
	}
}

func TestInMemoryQueue_DequeueHonorsContextCancellation(t *testing.T) {
	q := NewInMemoryQueue(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// No tasks enqueued, Dequeue should return ctx error.
	_, err := q.Dequeue(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestInMemoryQueue_EnqueueHonorsContextWhenFull(t *testing.T) {
	q := NewInMemoryQueue(1)
	ctx := context.Background()

	if err := q.Enqueue(ctx, Task{ID: "1"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.Enqueue(cctx, Task{ID: "2"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected Canceled on full queue, got %v", err)
	}
}

func TestNewInMemoryQueue_DefaultCapacity(t *testing.T) {
	q := NewInMemoryQueue(0)
	if cap(q.ch) != 1024 {
		t.Fatalf("expected default capacity 1024, got %d", cap(q.ch))
	}
}

func TestTask_Reply(t *testing.T) {
	ch := make(chan Result, 1)
	task := Task{Result: ch}

	task.Reply(Result{Err: errors.New("first")})
	task.Reply(Result{Err: errors.New("second")})

	got := <-ch
	if got.Err == nil || got.Err.Error() != "first" {
		t.Fatalf("expected first result, got %+v", got)
	}

	// A task without a result channel is a no-op.
	(&Task{}).Reply(Result{})
}

func TestInMemoryQueue_Drain(t *testing.T) {
	q := NewInMemoryQueue(4)
	ctx := context.Background()

	_ = q.Enqueue(ctx, Task{ID: "a"})
	_ = q.Enqueue(ctx, Task{ID: "b"})

	got := q.Drain()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected drained tasks: %+v", got)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
	if got := q.Drain(); len(got) != 0 {
		t.Fatalf("expected nothing to drain, got %+v", got)
	}
}
