// Package eventlog is a best-effort, append-only audit trail of agent
// lifecycle transitions. It is never a second source of truth: the
// registry in internal/state remains authoritative, and eventlog failures
// never propagate into orchestrator operations.
package eventlog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wta-dev/wta/internal/logging"
)

// Kind enumerates the event types recorded.
type Kind string

const (
	Launched      Kind = "launched"
	StatusChanged Kind = "status_changed"
	Merged        Kind = "merged"
	Removed       Kind = "removed"
	Pruned        Kind = "pruned"
	PRCreated     Kind = "pr_created"
)

// Event is a single row of the events table.
type Event struct {
	ID      int64
	AgentID string
	Kind    Kind
	Detail  string
	At      time.Time
}

// Log wraps a sqlite-backed events.db. A nil *Log is valid and every method
// on it is a no-op, so callers can construct one unconditionally and only
// check the enabled flag once at startup.
type Log struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	detail TEXT NOT NULL DEFAULT '',
	at DATETIME NOT NULL
);
`

// Open opens (creating if necessary) the sqlite database at path and
// ensures the events table exists.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record appends an event. Failures are logged and swallowed: a broken
// audit log must never fail a real orchestrator operation.
func (l *Log) Record(ctx context.Context, agentID string, kind Kind, detail string) {
	if l == nil || l.db == nil {
		return
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO events (agent_id, kind, detail, at) VALUES (?, ?, ?, ?)`,
		agentID, string(kind), detail, time.Now().UTC(),
	)
	if err != nil {
		logging.WithComponent("eventlog").Warn("failed to record event", "agent_id", agentID, "kind", kind, "error", err)
	}
}

// ForAgent returns every recorded event for the given agent id, oldest
// first.
func (l *Log) ForAgent(ctx context.Context, agentID string) ([]Event, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, agent_id, kind, detail, at FROM events WHERE agent_id = ? ORDER BY id ASC`,
		agentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var kind string
		if err := rows.Scan(&e.ID, &e.AgentID, &kind, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		events = append(events, e)
	}
	return events, rows.Err()
}
