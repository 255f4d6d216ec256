package reqflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/petrijr/reqflow/internal/taskqueue"
	"github.com/petrijr/reqflow/pkg/worker"
)

var (
	// ErrLocalRunnerStarted is returned by Start on a running LocalRunner.
	ErrLocalRunnerStarted = errors.New("reqflow: local runner already started")
	// ErrLocalRunnerNotStarted is returned when events are sent before Start.
	ErrLocalRunnerNotStarted = errors.New("reqflow: local runner not started")
	// ErrLocalRunnerStopped is delivered to events still queued at Stop.
	ErrLocalRunnerStopped = errors.New("reqflow: local runner stopped")
)

// LocalRunner bundles a runner, an in-memory task queue and a Worker so that
// events can be sent from any goroutine. A single worker goroutine owns the
// runner and hands it one event batch at a time.
//
// Typical usage:
//
//	lr := reqflow.NewLocalRunner(reqflow.WithLogger(logger))
//	if err := lr.Start(ctx, model); err != nil { ... }
//	defer lr.Stop(ctx)
//
//	// Synchronous: wait for the reaction.
//	step, err := lr.ReactTo(ctx, OrderPlaced{ID: "o-1"})
//
//	// Asynchronous: fire and forget.
//	_ = lr.ReactToAsync(ctx, OrderShipped{ID: "o-1"})
//
// Runner state such as LatestStep may only be read after Stop, or from
// inside reactions and observers.
type LocalRunner struct {
	// Runner is the runner driven by the worker goroutine.
	Runner Runner

	// Queue buffers events until the worker picks them up.
	Queue *taskqueue.InMemoryQueue

	// Worker processes tasks from Queue using Runner.
	Worker *worker.Worker

	logger *slog.Logger

	mu      sync.RWMutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewLocalRunner constructs a LocalRunner. opts configure the runner as in
// NewRunner.
func NewLocalRunner(opts ...Option) *LocalRunner {
	cfg := newConfig(opts)
	logger := loggerOf(cfg)

	runner := NewRunner(opts...)
	q := taskqueue.NewInMemoryQueue(1024)
	w := worker.NewWithConfig(runner, q, worker.Config{Logger: logger})

	return &LocalRunner{
		Runner: runner,
		Queue:  q,
		Worker: w,
		logger: logger,
	}
}

// Start runs m on the runner, then starts the worker goroutine. Autonomous
// steps at the start of m react before Start returns.
func (r *LocalRunner) Start(ctx context.Context, m *Model) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return ErrLocalRunnerStarted
	}
	if err := r.Runner.Run(ctx, m); err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.cancel = cancel
	r.done = make(chan struct{})
	r.running = true

	go r.loop(loopCtx, r.done)
	return nil
}

func (r *LocalRunner) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for ctx.Err() == nil {
		// Task failures are logged by the worker.
		processed, err := r.Worker.ProcessOne(ctx)
		if processed {
			continue
		}
		if errors.Is(err, context.Canceled) {
			return
		}
		r.logger.WarnContext(ctx, "local_runner_dequeue_failed", slog.Any("error", err))
	}
}

// ReactTo sends events to the runner and waits for the reaction. It returns
// the step that reacted to the last event, as Runner.ReactTo does.
func (r *LocalRunner) ReactTo(ctx context.Context, events ...any) (*Step, error) {
	r.mu.RLock()
	if !r.running {
		r.mu.RUnlock()
		return nil, ErrLocalRunnerNotStarted
	}
	res, err := r.Worker.Send(ctx, events...)
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	select {
	case out := <-res:
		return out.Step, out.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ReactToAsync queues events for the runner without waiting. Errors raised
// while reacting are logged.
func (r *LocalRunner) ReactToAsync(ctx context.Context, events ...any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.running {
		return ErrLocalRunnerNotStarted
	}
	return r.Worker.Enqueue(ctx, events...)
}

// IsRunning reports whether Start has been called without a matching Stop.
func (r *LocalRunner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Stop cancels the worker goroutine and waits for it to exit, then stops the
// runner. Events still queued fail with ErrLocalRunnerStopped. Stop is
// idempotent.
func (r *LocalRunner) Stop(ctx context.Context) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.cancel()
	done := r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	<-done

	r.Runner.Stop(ctx)
	for _, task := range r.Queue.Drain() {
		task.Reply(taskqueue.Result{Err: ErrLocalRunnerStopped})
	}
}
