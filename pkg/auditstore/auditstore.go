// Package auditstore appends an immutable log of executive, task, and
// reaction events to Postgres, the way
// yf4toy-stateful-conflict-crm-engine's LeadRepositoryPostgres wraps a
// *sql.DB with one method per query, and
// m5pt43-event-sourcing-go's cmd/eventstore/main.go opens the
// connection from DATABASE_URL.
package auditstore

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// Store appends Event rows to a single append-only table; there is no
// Update or Delete, matching the audit-log contract.
type Store struct {
	db *sql.DB
}

// New wraps an already-open *sql.DB. Callers own the connection's
// lifecycle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// InitSchema creates the events table if it doesn't exist.
func (s *Store) InitSchema() error {
	const query = `
	CREATE TABLE IF NOT EXISTS batchsim_events (
		id BIGSERIAL PRIMARY KEY,
		occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		sim_time_sec DOUBLE PRECISION NOT NULL,
		category VARCHAR(32) NOT NULL,
		subject VARCHAR(255) NOT NULL,
		detail TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Event is one append-only audit row.
type Event struct {
	ID         int64
	OccurredAt time.Time
	SimTimeSec float64
	Category   string
	Subject    string
	Detail     string
}

// Append inserts ev, stamping OccurredAt server-side and returning the
// assigned ID.
func (s *Store) Append(ev Event) (int64, error) {
	const query = `
		INSERT INTO batchsim_events (sim_time_sec, category, subject, detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id, occurred_at
	`
	err := s.db.QueryRow(query, ev.SimTimeSec, ev.Category, ev.Subject, ev.Detail).
		Scan(&ev.ID, &ev.OccurredAt)
	return ev.ID, err
}

// Since returns every event recorded at or after simTimeSec, ordered
// by sim time then insertion order.
func (s *Store) Since(simTimeSec float64) ([]Event, error) {
	const query = `
		SELECT id, occurred_at, sim_time_sec, category, subject, detail
		FROM batchsim_events
		WHERE sim_time_sec >= $1
		ORDER BY sim_time_sec ASC, id ASC
	`
	rows, err := s.db.Query(query, simTimeSec)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.OccurredAt, &ev.SimTimeSec, &ev.Category, &ev.Subject, &ev.Detail); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
