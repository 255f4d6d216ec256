package taskqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	coreq "github.com/petrijr/reqflow/internal/taskqueue"
)

// pollInterval is how long Dequeue waits before looking for tasks again.
const pollInterval = 100 * time.Millisecond

// PostgresQueue implements Queue using a PostgreSQL table.
//
// Schema (created automatically if missing):
//
//	CREATE TABLE IF NOT EXISTS queue_tasks (
//	    seq         BIGSERIAL PRIMARY KEY,
//	    id          TEXT NOT NULL UNIQUE,
//	    payload     BYTEA NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//
// The queue is FIFO by seq.
type PostgresQueue struct {
	db      *sql.DB
	replies coreq.Replies
}

// NewPostgresQueue creates the required schema if needed and returns a Queue.
func NewPostgresQueue(db *sql.DB) (*PostgresQueue, error) {
	q := &PostgresQueue{db: db}
	if err := q.initSchema(); err != nil {
		return nil, err
	}
	return q, nil
}

// Ensure PostgresQueue implements Queue.
var _ coreq.Queue = (*PostgresQueue)(nil)

func (q *PostgresQueue) initSchema() error {
	_, err := q.db.Exec(`
		CREATE TABLE IF NOT EXISTS queue_tasks (
			seq        BIGSERIAL PRIMARY KEY,
			id         TEXT NOT NULL UNIQUE,
			payload    BYTEA NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}

// Enqueue inserts a task into the queue.
func (q *PostgresQueue) Enqueue(ctx context.Context, t coreq.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	data, err := coreq.EncodeTask(t)
	if err != nil {
		return err
	}

	q.replies.Track(t)
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO queue_tasks (id, payload)
		VALUES ($1, $2)
	`, t.ID, data)
	if err != nil {
		q.replies.Forget(t.ID)
		return err
	}
	return nil
}

// Dequeue blocks (with polling) until a task is available or ctx is cancelled.
//
// Implementation notes:
//   - Uses SELECT ... FOR UPDATE SKIP LOCKED in a transaction to safely claim
//     a single row, then DELETEs it in the same transaction.
//   - If no rows are available, sleeps briefly and retries, checking ctx.
func (q *PostgresQueue) Dequeue(ctx context.Context) (*coreq.Task, error) {
	// Use a reusable timer to avoid allocating a new timer on every idle poll.
	tmr := time.NewTimer(0)
	if !tmr.Stop() {
		select {
		case <-tmr.C:
		default:
		}
	}
	defer tmr.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		id, payload, err := q.claim(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			tmr.Reset(pollInterval)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-tmr.C:
			}
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}

		task, err := coreq.DecodeTask(payload)
		if err != nil {
			return nil, fmt.Errorf("decode task %q failed: %w", id, err)
		}
		task.ID = id
		q.replies.Attach(task)
		return task, nil
	}
}

// claim deletes the oldest unlocked task and returns it.
func (q *PostgresQueue) claim(ctx context.Context) (id string, payload []byte, err error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Lock a single oldest row, if any.
	err = tx.QueryRowContext(ctx, `
		SELECT id, payload
		FROM queue_tasks
		ORDER BY seq
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`).Scan(&id, &payload)
	if err != nil {
		return "", nil, err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM queue_tasks WHERE id = $1`, id); err != nil {
		return "", nil, err
	}
	if err = tx.Commit(); err != nil {
		return "", nil, err
	}
	return id, payload, nil
}

// Len returns an approximate number of queued tasks.
func (q *PostgresQueue) Len() int {
	var n int
	if err := q.db.QueryRow(`SELECT COUNT(*) FROM queue_tasks`).Scan(&n); err != nil {
		slog.Warn("postgres_queue_len_failed", slog.Any("error", err))
		return 0
	}
	return n
}
