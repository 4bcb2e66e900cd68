// Package storage persists normalized repository events in SQLite.
//
// The store owns the database handle for the whole process. Opening is
// bounded by a single timeout and failure is not fatal: operations attempt
// a lazy re-initialization and report ErrUnavailable until the backend
// comes up. The UNIQUE index on request_id is the sole concurrency
// mechanism; it guarantees at most one stored record per delivery even
// under concurrent duplicate deliveries.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/repopulse/repopulse/internal/event"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrDuplicateEvent reports that a delivery with the same request_id is
	// already stored. Callers treat this as idempotent success.
	ErrDuplicateEvent = errors.New("event already recorded")

	// ErrUnavailable reports that the backing database could not be reached.
	ErrUnavailable = errors.New("event store unavailable")
)

// DefaultListLimit is the number of events List returns when the caller
// passes a non-positive limit.
const DefaultListLimit = 50

// MaxListLimit caps the number of events a single List call returns. The
// limit reaches the store from an unauthenticated query parameter, so it is
// clamped before it sizes any allocation.
const MaxListLimit = 500

const initTimeout = 5 * time.Second

// Store is the event persistence layer. The zero value is not usable;
// construct with New.
type Store struct {
	path string

	mu sync.Mutex
	db *sql.DB
}

// New creates a Store for the SQLite database at path without connecting.
// Call Init to establish the connection, or let the first operation do it
// lazily.
func New(path string) *Store {
	return &Store{path: path}
}

// Init opens the database, applies pragmas, and ensures the schema and
// indexes exist. The whole sequence is bounded by a single timeout; there
// is no retry loop. Safe to call again after a failure.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initLocked(ctx)
}

func (s *Store) initLocked(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	if s.path == "" {
		return fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	ictx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	if _, err := db.ExecContext(ictx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := bootstrap(ictx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// bootstrap creates the events table and its indexes if missing.
func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
  request_id  TEXT NOT NULL,
  author      TEXT NOT NULL,
  action      TEXT NOT NULL,
  from_branch TEXT,
  to_branch   TEXT NOT NULL,
  timestamp   TEXT NOT NULL,
  created_at  TEXT NOT NULL
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS events_request_id_idx ON events(request_id);`,
		`CREATE INDEX IF NOT EXISTS events_timestamp_idx ON events(timestamp);`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}

// handle returns the live database handle, lazily re-initializing when a
// previous Init failed or was never run.
func (s *Store) handle(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		if err := s.initLocked(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return s.db, nil
}

// Available reports whether the store has a live database handle.
func (s *Store) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// Save stamps created_at and inserts ev as a new record. A second delivery
// with the same request_id returns ErrDuplicateEvent; the first record is
// never touched.
func (s *Store) Save(ctx context.Context, ev *event.Event) error {
	if ev.RequestID == "" {
		return fmt.Errorf("request_id is empty")
	}

	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	ev.CreatedAt = event.FormatTime(time.Now())

	_, err = db.ExecContext(ctx, `
INSERT INTO events(request_id, author, action, from_branch, to_branch, timestamp, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, ev.RequestID, ev.Author, string(ev.Action), ev.FromBranch, ev.ToBranch, ev.Timestamp, ev.CreatedAt)
	if err != nil {
		var serr *sqlite.Error
		if errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return ErrDuplicateEvent
		}
		return fmt.Errorf("save event: %w", err)
	}
	return nil
}

// List returns up to limit events, newest first by ingestion timestamp.
// A non-positive limit means DefaultListLimit; anything above MaxListLimit
// is clamped down to it. Internal row ids are not exposed.
func (s *Store) List(ctx context.Context, limit int) ([]event.Event, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
SELECT request_id, author, action, from_branch, to_branch, timestamp, created_at
FROM events
ORDER BY timestamp DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0, limit)
	for rows.Next() {
		var (
			ev     event.Event
			action string
			from   sql.NullString
		)
		if err := rows.Scan(&ev.RequestID, &ev.Author, &action, &from, &ev.ToBranch, &ev.Timestamp, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Action = event.Action(action)
		if from.Valid {
			ev.FromBranch = &from.String
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Count returns the total number of stored events.
func (s *Store) Count(ctx context.Context) (int64, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// Clear deletes all stored events. Administrative use only; exists for test
// isolation.
func (s *Store) Clear(ctx context.Context) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM events;`); err != nil {
		return fmt.Errorf("clear events: %w", err)
	}
	return nil
}

// Close releases the database handle. The store may be re-initialized
// afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
