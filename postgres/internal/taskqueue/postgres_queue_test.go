package taskqueue

import (
	"context"
	"database/sql"
	"encoding/gob"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/suite"

	coreq "github.com/petrijr/reqflow/internal/taskqueue"
	"github.com/petrijr/reqflow/postgres/internal/testutil"
)

type cartItem struct {
	SKU string
	Qty int
}

type PostgresQueueTestSuite struct {
	suite.Suite
	db    *sql.DB
	queue *PostgresQueue
}

func TestPostgresQueueSuite(t *testing.T) {
	gob.Register(cartItem{})
	dsn := testutil.GetPostgresEndpoint(t)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	q, err := NewPostgresQueue(db)
	if err != nil {
		t.Fatalf("NewPostgresQueue failed: %v", err)
	}
	suite.Run(t, &PostgresQueueTestSuite{db: db, queue: q})
}

func (p *PostgresQueueTestSuite) SetupTest() {
	_, err := p.db.Exec("TRUNCATE TABLE queue_tasks")
	p.Require().NoError(err, "TRUNCATE queue_tasks failed")
}

func (p *PostgresQueueTestSuite) TestFIFO() {
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		err := p.queue.Enqueue(ctx, coreq.Task{
			ID:     id,
			Type:   coreq.TaskTypeReact,
			Events: []any{cartItem{SKU: id, Qty: i}},
		})
		p.Require().NoError(err)
	}
	p.Equal(3, p.queue.Len())

	for i, want := range []string{"a", "b", "c"} {
		task, err := p.queue.Dequeue(ctx)
		p.Require().NoError(err)
		p.Equal(want, task.ID)
		p.Equal([]any{cartItem{SKU: want, Qty: i}}, task.Events)
	}
	p.Equal(0, p.queue.Len())
}

func (p *PostgresQueueTestSuite) TestDuplicateIDRejected() {
	ctx := context.Background()
	p.Require().NoError(p.queue.Enqueue(ctx, coreq.Task{ID: "dup", Type: coreq.TaskTypeReact}))
	p.Error(p.queue.Enqueue(ctx, coreq.Task{ID: "dup", Type: coreq.TaskTypeReact}))
	p.Equal(1, p.queue.Len())
}

// Concurrent consumers never receive the same task.
func (p *PostgresQueueTestSuite) TestConcurrentConsumers() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	const n = 20
	for i := 0; i < n; i++ {
		p.Require().NoError(p.queue.Enqueue(ctx, coreq.Task{Type: coreq.TaskTypeReact}))
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				done := len(seen) >= n
				mu.Unlock()
				if done {
					return
				}

				dctx, dcancel := context.WithTimeout(ctx, 300*time.Millisecond)
				task, err := p.queue.Dequeue(dctx)
				dcancel()
				if err != nil {
					continue
				}
				mu.Lock()
				seen[task.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	p.Len(seen, n)
	for id, count := range seen {
		p.Equalf(1, count, "task %s delivered %d times", id, count)
	}
}

func (p *PostgresQueueTestSuite) TestResultChannelIsReattached() {
	ctx := context.Background()
	res := make(chan coreq.Result, 1)
	p.Require().NoError(p.queue.Enqueue(ctx, coreq.Task{ID: "t-1", Type: coreq.TaskTypeStop, Result: res}))

	task, err := p.queue.Dequeue(ctx)
	p.Require().NoError(err)
	task.Reply(coreq.Result{})

	select {
	case <-res:
	case <-time.After(time.Second):
		p.Fail("expected a reply on the original channel")
	}
}

func (p *PostgresQueueTestSuite) TestDequeueHonorsContext() {
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err := p.queue.Dequeue(ctx)
	p.ErrorIs(err, context.DeadlineExceeded)
}
