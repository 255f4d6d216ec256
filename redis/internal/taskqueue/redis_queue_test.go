package taskqueue

import (
	"context"
	"encoding/gob"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	coreq "github.com/petrijr/reqflow/internal/taskqueue"
	"github.com/petrijr/reqflow/redis/internal/testutil"
)

type cartItem struct {
	SKU string
	Qty int
}

type RedisQueueTestSuite struct {
	suite.Suite
	endpoint string
	client   *redis.Client
	queue    *RedisQueue
}

func TestRedisQueueSuite(t *testing.T) {
	gob.Register(cartItem{})
	testsuite := new(RedisQueueTestSuite)
	testsuite.endpoint = testutil.GetRedisAddress(t)
	initTestRedisQueue(t, testsuite)
	suite.Run(t, testsuite)
}

func (r *RedisQueueTestSuite) SetupTest() {
	err := r.client.Del(context.Background(), r.queue.key).Err()
	r.NoError(err, "redis DEL failed")
}

func initTestRedisQueue(t *testing.T, ts *RedisQueueTestSuite) {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: ts.endpoint,
	})
	ts.client = client

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("redis ping failed: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close()
	})

	ts.queue = NewRedisQueue(client, "reqflow:test:")
}

func (r *RedisQueueTestSuite) TestEnqueueDequeue() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tasksCh := make(chan *coreq.Task, 1)
	errCh := make(chan error, 1)

	go func() {
		task, err := r.queue.Dequeue(ctx)
		if err != nil {
			errCh <- err
			return
		}
		tasksCh <- task
	}()

	// Allow the consumer to start and block on BRPop.
	time.Sleep(100 * time.Millisecond)

	err := r.queue.Enqueue(ctx, coreq.Task{
		ID:     "t-1",
		Type:   coreq.TaskTypeReact,
		Events: []any{cartItem{SKU: "42", Qty: 1}},
	})
	r.Require().NoError(err)

	select {
	case err := <-errCh:
		r.Failf("Dequeue returned error", "Dequeue returned error: %v", err)
	case task := <-tasksCh:
		r.Require().NotNil(task)
		r.Equal("t-1", task.ID)
		r.Equal([]any{cartItem{SKU: "42", Qty: 1}}, task.Events)
	case <-time.After(3 * time.Second):
		r.Fail("timed out waiting for dequeued task")
	}

	r.Equal(0, r.queue.Len())
}

func (r *RedisQueueTestSuite) TestFIFOAndLen() {
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		r.Require().NoError(r.queue.Enqueue(ctx, coreq.Task{ID: id, Type: coreq.TaskTypeReact}))
	}
	r.Equal(3, r.queue.Len())

	for _, want := range []string{"a", "b", "c"} {
		task, err := r.queue.Dequeue(ctx)
		r.Require().NoError(err)
		r.Equal(want, task.ID)
	}
}

func (r *RedisQueueTestSuite) TestResultChannelIsReattached() {
	ctx := context.Background()
	res := make(chan coreq.Result, 1)

	r.Require().NoError(r.queue.Enqueue(ctx, coreq.Task{ID: "t-2", Type: coreq.TaskTypeStop, Result: res}))

	task, err := r.queue.Dequeue(ctx)
	r.Require().NoError(err)
	task.Reply(coreq.Result{})

	select {
	case <-res:
	case <-time.After(time.Second):
		r.Fail("expected a reply on the original channel")
	}
}

func (r *RedisQueueTestSuite) TestDequeueHonorsContext() {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.queue.Dequeue(ctx)
	r.ErrorIs(err, context.DeadlineExceeded)
}
