package taskqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SQLiteQueue is a persistent task queue backed by SQLite, FIFO by an
// auto-incrementing sequence. Tasks are gob-encoded with EncodeTask.
type SQLiteQueue struct {
	db           *sql.DB
	pollInterval time.Duration
	replies      Replies
}

// NewSQLiteQueue initializes the queue table in the given DB and returns a new queue.
func NewSQLiteQueue(db *sql.DB) (*SQLiteQueue, error) {
	q := &SQLiteQueue{
		db:           db,
		pollInterval: 20 * time.Millisecond,
	}
	if err := q.initSchema(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *SQLiteQueue) initSchema() error {
	_, err := q.db.Exec(`
		CREATE TABLE IF NOT EXISTS queue_tasks (
			seq         INTEGER PRIMARY KEY AUTOINCREMENT,
			id          TEXT NOT NULL UNIQUE,
			type        TEXT NOT NULL,
			payload     BLOB NOT NULL,
			enqueued_at INTEGER NOT NULL
		);
	`)
	return err
}

// Ensure SQLiteQueue implements Queue.
var _ Queue = (*SQLiteQueue)(nil)

func (q *SQLiteQueue) Enqueue(ctx context.Context, t Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.EnqueuedAt.IsZero() {
		t.EnqueuedAt = time.Now()
	}
	payload, err := EncodeTask(t)
	if err != nil {
		return err
	}

	q.replies.Track(t)
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO queue_tasks (id, type, payload, enqueued_at)
		VALUES (?, ?, ?, ?)`,
		t.ID,
		string(t.Type),
		payload,
		t.EnqueuedAt.UnixNano(),
	)
	if err != nil {
		q.replies.Forget(t.ID)
		return fmt.Errorf("enqueue task %s: %w", t.ID, err)
	}
	return nil
}

func (q *SQLiteQueue) Dequeue(ctx context.Context) (*Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		id, payload, err := q.claim(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			// Nothing available: sleep a bit and retry.
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(q.pollInterval):
				continue
			}
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}

		task, err := DecodeTask(payload)
		if err != nil {
			return nil, fmt.Errorf("decode task %q: %w", id, err)
		}
		task.ID = id
		q.replies.Attach(task)
		return task, nil
	}
}

// claim deletes the oldest task and returns it.
func (q *SQLiteQueue) claim(ctx context.Context) (id string, payload []byte, err error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var seq int64
	err = tx.QueryRowContext(ctx, `
		SELECT seq, id, payload
		FROM queue_tasks
		ORDER BY seq
		LIMIT 1`).Scan(&seq, &id, &payload)
	if err != nil {
		return "", nil, err
	}

	// Delete the row we just claimed.
	if _, err = tx.ExecContext(ctx, `DELETE FROM queue_tasks WHERE seq = ?`, seq); err != nil {
		return "", nil, err
	}
	if err = tx.Commit(); err != nil {
		return "", nil, err
	}
	return id, payload, nil
}

func (q *SQLiteQueue) Len() int {
	var n int
	if err := q.db.QueryRow(`SELECT COUNT(*) FROM queue_tasks`).Scan(&n); err != nil {
		slog.Warn("sqlite_queue_len_failed", slog.Any("error", err))
		return 0
	}
	return n
}
