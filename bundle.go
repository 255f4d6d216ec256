package reqflow

import (
	"database/sql"

	"github.com/petrijr/reqflow/internal/persistence"
	"github.com/petrijr/reqflow/internal/taskqueue"
	"github.com/petrijr/reqflow/pkg/worker"
)

// SQLiteBundle wires a runner to a journal and an event queue, both
// persisted in the same SQLite database.
type SQLiteBundle struct {
	Runner  Runner
	Journal *Journal
	Events  EventStore
	Queue   Queue
	Worker  *worker.Worker
}

// NewSQLiteBundle constructs a runner whose run events are journaled in the
// provided *sql.DB, plus a durable queue and a worker feeding the runner
// from it. The journal is added after the observers in opts. Event types
// sent through the queue must be registered with RegisterEvent.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:reqflow.db?_pragma=journal_mode(WAL)")
//	bundle, err := reqflow.NewSQLiteBundle(db, reqflow.WithLogger(logger))
//	_ = bundle.Runner.Run(ctx, model)
//	_ = bundle.Worker.Enqueue(ctx, AddItem{SKU: "42"})
//	_, _ = bundle.Worker.ProcessOne(ctx)
//	events, _ := bundle.Events.ListEvents(ctx, bundle.Runner.ID())
func NewSQLiteBundle(db *sql.DB, opts ...Option) (*SQLiteBundle, error) {
	store, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	queue, err := taskqueue.NewSQLiteQueue(db)
	if err != nil {
		return nil, err
	}

	logger := loggerOf(newConfig(opts))
	journal := persistence.NewJournal(store, logger)
	runner := NewRunner(append(opts[:len(opts):len(opts)], WithObserver(journal))...)

	return &SQLiteBundle{
		Runner:  runner,
		Journal: journal,
		Events:  store,
		Queue:   queue,
		Worker:  worker.NewWithConfig(runner, queue, worker.Config{Logger: logger}),
	}, nil
}
