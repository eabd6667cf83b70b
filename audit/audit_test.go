package audit

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogger_Init(t *testing.T) {
	db := setupTestDB(t)
	l := NewLogger(db, nil)
	if err := l.Init(); err != nil {
		t.Fatal(err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='run_log'").Scan(&count)
	if count != 1 {
		t.Fatal("run_log table not created")
	}
}

func TestLogger_LogAndQuery(t *testing.T) {
	// WHAT: Entries land in the run's log in insertion order with the run ID attached.
	db := setupTestDB(t)
	l := NewLogger(db, nil)
	if err := l.Init(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	l.Log(ctx, EventRunStart, "", "", true)
	l.Step(ctx, "LoggedIn")
	l.Log(ctx, EventDuplicate, "https://host/doc/1", "already processed", true)
	l.Log(ctx, EventFailed, "https://host/doc/2", "navigation timeout", false)

	entries, err := Entries(ctx, db, l.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[0].EventType != EventRunStart {
		t.Errorf("first entry = %s", entries[0].EventType)
	}
	if entries[3].Success {
		t.Error("failed entry recorded as success")
	}
}

func TestLogger_WriteFailureDoesNotPanic(t *testing.T) {
	// WHAT: Logging against an uninitialised schema is swallowed, not fatal.
	// WHY: A broken audit store must never abort the harvest itself.
	db := setupTestDB(t)
	l := NewLogger(db, nil)
	// No Init: table is missing.
	l.Log(context.Background(), EventStep, "Init", "", true)
}

func TestLogger_DistinctRunIDs(t *testing.T) {
	// WHAT: Each Logger gets its own run ID so successive runs stay separable.
	db := setupTestDB(t)
	a := NewLogger(db, nil)
	b := NewLogger(db, nil)
	if a.RunID() == b.RunID() {
		t.Error("run IDs collide")
	}
}
