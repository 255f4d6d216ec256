package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrijr/reqflow/internal/engine"
	"github.com/petrijr/reqflow/internal/taskqueue"
	"github.com/petrijr/reqflow/internal/testutil"
	"github.com/petrijr/reqflow/pkg/api"
	"github.com/petrijr/reqflow/pkg/model"
)

type added struct{ N int }

type failed struct{}

var errBoom = errors.New("boom")

// newCounterRunner returns a running runner whose flowless step adds to
// *total on every added event and fails on failed events.
func newCounterRunner(t *testing.T, total *int) api.Runner {
	t.Helper()
	m := model.NewBuilder().
		UseCase("Count").
		Handles(model.TypeOf[added]()).With(model.Consume(func(_ context.Context, e added) error {
			*total += e.N
			return nil
		})).
		Handles(model.TypeOf[failed]()).With(model.Run(func(context.Context) error { return errBoom })).
		Build()

	r := engine.NewRunner(engine.Config{Logger: testutil.Logger(t)})
	require.NoError(t, r.Run(context.Background(), m))
	return r
}

func TestWorker_ProcessesReactTasksInOrder(t *testing.T) {
	ctx := context.Background()
	var total int
	r := newCounterRunner(t, &total)
	q := taskqueue.NewInMemoryQueue(10)
	w := New(r, q)

	require.NoError(t, w.Enqueue(ctx, added{N: 1}, added{N: 2}))
	require.NoError(t, w.Enqueue(ctx, added{N: 3}))
	assert.Equal(t, 2, q.Len())

	for i := 0; i < 2; i++ {
		processed, err := w.ProcessOne(ctx)
		require.NoError(t, err)
		assert.True(t, processed)
	}

	assert.Equal(t, 6, total)
	assert.Equal(t, []string{"S1", "S1", "S1"}, r.RunStepNames())
}

func TestWorker_ProcessOneReturnsReactionError(t *testing.T) {
	ctx := context.Background()
	var total int
	w := NewWithConfig(newCounterRunner(t, &total), taskqueue.NewInMemoryQueue(10), Config{Logger: testutil.Logger(t)})

	require.NoError(t, w.Enqueue(ctx, failed{}))
	processed, err := w.ProcessOne(ctx)
	assert.True(t, processed)
	assert.ErrorIs(t, err, errBoom)
}

func TestWorker_SubmitWaitsForResult(t *testing.T) {
	ctx := context.Background()
	var total int
	w := New(newCounterRunner(t, &total), taskqueue.NewInMemoryQueue(10))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 2; i++ {
			_, _ = w.ProcessOne(ctx)
		}
	}()

	step, err := w.Submit(ctx, added{N: 5})
	require.NoError(t, err)
	require.NotNil(t, step)
	assert.Equal(t, "S1", step.Name())

	_, err = w.Submit(ctx, failed{})
	assert.ErrorIs(t, err, errBoom)

	<-done
	assert.Equal(t, 5, total)
}

func TestWorker_SubmitHonorsContext(t *testing.T) {
	var total int
	w := New(newCounterRunner(t, &total), taskqueue.NewInMemoryQueue(10))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// Nobody processes the queue.
	_, err := w.Submit(ctx, added{N: 1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_StopTask(t *testing.T) {
	ctx := context.Background()
	var total int
	r := newCounterRunner(t, &total)
	w := New(r, taskqueue.NewInMemoryQueue(10))

	require.NoError(t, w.Enqueue(ctx, added{N: 1}))
	require.NoError(t, w.EnqueueStop(ctx))
	require.NoError(t, w.Enqueue(ctx, added{N: 1}))

	for i := 0; i < 3; i++ {
		_, err := w.ProcessOne(ctx)
		require.NoError(t, err)
	}

	assert.False(t, r.IsRunning())
	assert.Equal(t, 1, total, "events after stop are ignored")
}

func TestWorker_UnknownTaskType(t *testing.T) {
	ctx := context.Background()
	var total int
	q := taskqueue.NewInMemoryQueue(10)
	w := New(newCounterRunner(t, &total), q)

	res := make(chan taskqueue.Result, 1)
	require.NoError(t, q.Enqueue(ctx, taskqueue.Task{ID: "x", Type: "bogus", Result: res}))

	processed, err := w.ProcessOne(ctx)
	assert.True(t, processed)
	assert.ErrorIs(t, err, ErrUnknownTaskType)
	assert.ErrorIs(t, (<-res).Err, ErrUnknownTaskType)
}

func TestWorker_ProcessOneHonorsContext(t *testing.T) {
	var total int
	w := New(newCounterRunner(t, &total), taskqueue.NewInMemoryQueue(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processed, err := w.ProcessOne(ctx)
	assert.False(t, processed)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorker_TaskTimeout(t *testing.T) {
	ctx := context.Background()
	m := model.NewBuilder().
		UseCase("Slow").
		Handles(model.TypeOf[added]()).With(model.Run(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})).
		Build()
	r := engine.NewRunner(engine.Config{Logger: testutil.Logger(t)})
	require.NoError(t, r.Run(ctx, m))

	w := NewWithConfig(r, taskqueue.NewInMemoryQueue(1), Config{TaskTimeout: 10 * time.Millisecond})
	require.NoError(t, w.Enqueue(ctx, added{}))

	_, err := w.ProcessOne(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_ConcurrentProducers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var total int
	w := New(newCounterRunner(t, &total), taskqueue.NewInMemoryQueue(100))

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		for {
			if _, err := w.ProcessOne(ctx); errors.Is(err, context.Canceled) {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.Submit(ctx, added{N: 1})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	cancel()
	<-loopDone

	assert.Equal(t, 10, total)
}
