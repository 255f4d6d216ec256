package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/reqflow/pkg/api"
)

// PostgresEventStore is an EventStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib" or "github.com/lib/pq").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresEventStore struct {
	db *sql.DB
}

// Ensure PostgresEventStore implements EventStore.
var _ EventStore = (*PostgresEventStore)(nil)

// NewPostgresEventStore initializes the required schema in the given
// database and returns a new PostgresEventStore.
func NewPostgresEventStore(db *sql.DB) (*PostgresEventStore, error) {
	s := &PostgresEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_events (
			id BIGSERIAL PRIMARY KEY,
			runner_id TEXT NOT NULL,
			seq BIGINT NOT NULL DEFAULT 0,
			at BIGINT NOT NULL,
			type TEXT NOT NULL,
			use_case TEXT NOT NULL DEFAULT '',
			flow TEXT NOT NULL DEFAULT '',
			step TEXT NOT NULL DEFAULT '',
			event TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_run_events_runner_id ON run_events(runner_id, id);
	`)
	return err
}

func (s *PostgresEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	if err := ValidateEvent(ev); err != nil {
		return err
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_events (runner_id, seq, at, type, use_case, flow, step, event, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		ev.RunnerID,
		ev.Seq,
		at.UnixNano(),
		string(ev.Type),
		ev.UseCase,
		ev.Flow,
		ev.Step,
		ev.Event,
		ev.Detail,
	)
	return err
}

func (s *PostgresEventStore) ListEvents(ctx context.Context, runnerID string) ([]api.RunEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT runner_id, seq, at, type, use_case, flow, step, event, detail
		FROM run_events
		WHERE runner_id = $1
		ORDER BY id ASC
	`, runnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}
