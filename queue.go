package reqflow

import (
	"database/sql"
	"encoding/gob"

	"github.com/petrijr/reqflow/internal/taskqueue"
)

// Queue is the task queue a Worker pulls events from.
type Queue = taskqueue.Queue

// NewInMemoryQueue returns a bounded in-process queue. A non-positive
// capacity means 1024.
func NewInMemoryQueue(capacity int) Queue {
	return taskqueue.NewInMemoryQueue(capacity)
}

// NewSQLiteQueue returns a durable queue stored in db, creating its table
// if needed.
func NewSQLiteQueue(db *sql.DB) (Queue, error) {
	q, err := taskqueue.NewSQLiteQueue(db)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// RegisterEvent registers the concrete type of event for encoding, like
// gob.Register. Durable queues (SQLite, Redis, Mongo, Postgres) require it for
// every event type they carry.
func RegisterEvent(event any) {
	gob.Register(event)
}
