package reqflow

import (
	"database/sql"
	"log/slog"

	"github.com/petrijr/reqflow/internal/persistence"
	"github.com/petrijr/reqflow/pkg/api"
)

type (
	// EventStore is an append-only store of run events.
	EventStore = persistence.EventStore
	// Journal is an Observer that writes run events to an EventStore.
	Journal = persistence.Journal
)

// Re-export run event types.

const (
	RunEventStarted       = api.RunEventStarted
	RunEventStopped       = api.RunEventStopped
	RunEventStepStarted   = api.RunEventStepStarted
	RunEventStepCompleted = api.RunEventStepCompleted
	RunEventStepFailed    = api.RunEventStepFailed
	RunEventUnhandled     = api.RunEventUnhandled
)

// NewJournal returns an observer that records run events in store. Store
// failures are logged with logger (slog.Default() if nil) and never fail
// the runner. Pass it with WithObserver.
func NewJournal(store EventStore, logger *slog.Logger) *Journal {
	return persistence.NewJournal(store, logger)
}

// NewInMemoryEventStore returns a non-durable event store, mostly for tests.
func NewInMemoryEventStore() *persistence.InMemoryEventStore {
	return persistence.NewInMemoryEventStore()
}

// NewSQLiteEventStore returns an event store using db, creating its table
// if needed. The caller imports the driver, e.g. modernc.org/sqlite.
func NewSQLiteEventStore(db *sql.DB) (*persistence.SQLiteEventStore, error) {
	return persistence.NewSQLiteEventStore(db)
}

// NewPostgresEventStore returns an event store using db, creating its table
// if needed. The caller imports the driver, e.g. github.com/jackc/pgx/v5/stdlib.
func NewPostgresEventStore(db *sql.DB) (*persistence.PostgresEventStore, error) {
	return persistence.NewPostgresEventStore(db)
}
