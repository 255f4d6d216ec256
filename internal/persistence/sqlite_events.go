package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/reqflow/pkg/api"
)

// SQLiteEventStore stores run events in SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteEventStore struct {
	db *sql.DB
}

// Ensure SQLiteEventStore implements the interface.
var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			runner_id TEXT NOT NULL,
			seq INTEGER NOT NULL DEFAULT 0,
			at INTEGER NOT NULL,
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

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.RunEvent) error {
	if err := ValidateEvent(ev); err != nil {
		return err
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_events (runner_id, seq, at, type, use_case, flow, step, event, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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

func (s *SQLiteEventStore) ListEvents(ctx context.Context, runnerID string) ([]api.RunEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT runner_id, seq, at, type, use_case, flow, step, event, detail
		FROM run_events
		WHERE runner_id = ?
		ORDER BY id ASC`, runnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEvents(rows)
}

// scanEvents reads rows selected as
// runner_id, seq, at, type, use_case, flow, step, event, detail.
func scanEvents(rows *sql.Rows) ([]api.RunEvent, error) {
	var out []api.RunEvent
	for rows.Next() {
		var (
			ev  api.RunEvent
			atN int64
			typ string
		)
		if err := rows.Scan(&ev.RunnerID, &ev.Seq, &atN, &typ, &ev.UseCase, &ev.Flow, &ev.Step, &ev.Event, &ev.Detail); err != nil {
			return nil, err
		}
		ev.At = time.Unix(0, atN)
		ev.Type = api.RunEventType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}
