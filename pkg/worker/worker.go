package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/reqflow/internal/taskqueue"
	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

// ErrUnknownTaskType is returned by ProcessOne for tasks it cannot handle.
var ErrUnknownTaskType = errors.New("unknown task type")

// Config controls worker behavior.
type Config struct {
	// Logger receives task failures. Defaults to slog.Default().
	Logger *slog.Logger

	// TaskTimeout bounds the processing of a single task. Zero means no limit.
	TaskTimeout time.Duration
}

// Worker pulls tasks from a Queue and hands their events to a Runner.
// Only one goroutine may call ProcessOne at a time, since runners are not
// safe for concurrent use.
type Worker struct {
	runner api.Runner
	queue  taskqueue.Queue
	cfg    Config
}

// New creates a new Worker with default config.
func New(runner api.Runner, queue taskqueue.Queue) *Worker {
	return NewWithConfig(runner, queue, Config{})
}

// NewWithConfig creates a new Worker.
func NewWithConfig(runner api.Runner, queue taskqueue.Queue, cfg Config) *Worker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Worker{
		runner: runner,
		queue:  queue,
		cfg:    cfg,
	}
}

// Runner returns the runner driven by the worker.
func (w *Worker) Runner() api.Runner { return w.runner }

// Enqueue enqueues events for asynchronous processing. It does NOT react to
// them itself; that is done by ProcessOne.
func (w *Worker) Enqueue(ctx context.Context, events ...any) error {
	return w.queue.Enqueue(ctx, w.newTask(taskqueue.TaskTypeReact, events, nil))
}

// Submit enqueues events and waits until they have been processed. It
// returns what the runner's ReactTo returned.
func (w *Worker) Submit(ctx context.Context, events ...any) (*model.Step, error) {
	res, err := w.Send(ctx, events...)
	if err != nil {
		return nil, err
	}
	select {
	case r := <-res:
		return r.Step, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Send enqueues events and returns the channel that receives the result of
// processing them.
func (w *Worker) Send(ctx context.Context, events ...any) (<-chan taskqueue.Result, error) {
	res := make(chan taskqueue.Result, 1)
	if err := w.queue.Enqueue(ctx, w.newTask(taskqueue.TaskTypeReact, events, res)); err != nil {
		return nil, err
	}
	return res, nil
}

// EnqueueStop enqueues a task that stops the runner once all tasks queued
// before it have been processed.
func (w *Worker) EnqueueStop(ctx context.Context) error {
	return w.queue.Enqueue(ctx, w.newTask(taskqueue.TaskTypeStop, nil, nil))
}

func (w *Worker) newTask(typ taskqueue.TaskType, events []any, res chan<- taskqueue.Result) taskqueue.Task {
	return taskqueue.Task{
		ID:         uuid.NewString(),
		Type:       typ,
		Events:     events,
		EnqueuedAt: time.Now(),
		Result:     res,
	}
}

// ProcessOne pulls a single task from the queue and processes it.
// Returns (processed, error):
//   - processed == false: no task was obtained, err is the dequeue error
//     (usually the context's).
//   - processed == true: a task was processed; err is what the runner returned.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	task, err := w.queue.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if task == nil {
		return false, nil
	}

	tctx := ctx
	if w.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, w.cfg.TaskTimeout)
		defer cancel()
	}

	var res taskqueue.Result
	switch task.Type {
	case taskqueue.TaskTypeReact:
		res.Step, res.Err = w.runner.ReactTo(tctx, task.Events...)
	case taskqueue.TaskTypeStop:
		w.runner.Stop(tctx)
	default:
		res.Err = fmt.Errorf("%w: %s", ErrUnknownTaskType, task.Type)
	}
	task.Reply(res)

	if res.Err != nil {
		w.cfg.Logger.WarnContext(ctx, "task_failed",
			slog.String("task_id", task.ID),
			slog.String("type", string(task.Type)),
			slog.String("runner_id", w.runner.ID()),
			slog.Any("error", res.Err),
		)
	}
	return true, res.Err
}
