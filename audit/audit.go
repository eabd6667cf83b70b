// CLAUDE:SUMMARY SQLite-backed run log: one row per run, workflow step, and candidate-URL outcome.
// Package audit records what each harvester run did: run start/end, every
// workflow step reached, and the outcome of every candidate URL (appended,
// duplicate, failed). A failing audit store never blocks the pipeline —
// write errors are logged and dropped.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventRunStart  = "run_start"
	EventRunEnd    = "run_end"
	EventStep      = "workflow_step"
	EventAppended  = "record_appended"
	EventDuplicate = "record_duplicate"
	EventFailed    = "record_failed"
)

// Entry is one audit row.
type Entry struct {
	EntryID   string
	RunID     string
	EventType string
	Subject   string // step name or candidate URL
	Detail    string // free text: error message, outcome note
	Success   bool
	CreatedAt int64
}

// Logger writes audit entries for a single run.
type Logger struct {
	db    *sql.DB
	runID string
	log   *slog.Logger
}

// Open opens (creating if needed) the audit database with the production
// pragmas and returns a handle. Import a driver for "sqlite" first, e.g.
// modernc.org/sqlite.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("audit: %s: %w", pragma, err)
		}
	}
	return db, nil
}

// NewLogger creates a Logger with a fresh run ID. Call Init before logging.
func NewLogger(db *sql.DB, slogger *slog.Logger) *Logger {
	if slogger == nil {
		slogger = slog.Default()
	}
	return &Logger{
		db:    db,
		runID: "run_" + uuid.NewString(),
		log:   slogger,
	}
}

// RunID returns this logger's run identifier.
func (l *Logger) RunID() string { return l.runID }

// Init creates the audit table if it does not exist.
func (l *Logger) Init() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS run_log (
			entry_id   TEXT PRIMARY KEY,
			run_id     TEXT NOT NULL,
			event_type TEXT NOT NULL,
			subject    TEXT NOT NULL DEFAULT '',
			detail     TEXT NOT NULL DEFAULT '',
			success    INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_run_log_run ON run_log(run_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("audit: init schema: %w", err)
	}
	return nil
}

// Log records one entry. Errors are logged via slog and swallowed.
func (l *Logger) Log(ctx context.Context, eventType, subject, detail string, success bool) {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO run_log (entry_id, run_id, event_type, subject, detail, success, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		"ent_"+uuid.NewString(), l.runID, eventType, subject, detail, success, time.Now().Unix())
	if err != nil {
		l.log.Warn("audit: write failed", "event_type", eventType, "error", err)
	}
}

// Step records a workflow step transition.
func (l *Logger) Step(ctx context.Context, state string) {
	l.Log(ctx, EventStep, state, "", true)
}

// Entries returns all entries for a run in insertion order. Used by
// diagnostics tooling and tests.
func Entries(ctx context.Context, db *sql.DB, runID string) ([]Entry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT entry_id, run_id, event_type, subject, detail, success, created_at
		FROM run_log WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.EntryID, &e.RunID, &e.EventType, &e.Subject, &e.Detail, &e.Success, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
