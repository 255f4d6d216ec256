package taskqueue

import (
	"context"
	"time"

	"github.com/petrijr/reqflow/pkg/model"
)

// TaskType identifies what the worker should do.
type TaskType string

const (
	TaskTypeReact TaskType = "react"
	TaskTypeStop  TaskType = "stop"
)

// Task represents a unit of work for the worker that owns a runner.
type Task struct {
	ID   string
	Type TaskType

	// Events are handed to the runner in order (react tasks only).
	Events []any

	EnqueuedAt time.Time

	// Result, if set, receives exactly one Result once the task has been
	// processed. It should be buffered.
	Result chan<- Result
}

// Result is the outcome of a processed task.
type Result struct {
	// Step is the step that reacted to the last event, or nil.
	Step *model.Step
	Err  error
}

// Reply delivers r on t.Result without blocking.
func (t *Task) Reply(r Result) {
	if t.Result == nil {
		return
	}
	select {
	case t.Result <- r:
	default:
	}
}

// Queue is a simple async task queue interface.
type Queue interface {
	// Enqueue adds a task to the queue. It should respect ctx for cancellation.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue removes and returns the next task, blocking until one is available
	// or the context is cancelled.
	Dequeue(ctx context.Context) (*Task, error)

	// Len returns the approximate number of tasks queued.
	Len() int
}
