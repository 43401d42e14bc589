// Package storage implements the persistence collaborator: a named-slot
// key/value store backed by SQLite. Slot values are opaque JSON blobs; the
// engine reads and writes them through the domain.SlotStore contract.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS slots (
	name       TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store persists observable slot values. All methods are safe for concurrent
// use; SQLite serializes the writes.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the slot database at path. Use
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}

	if path == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: journal_mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Restore returns the last persisted value for the named slot.
func (s *Store) Restore(name string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(`SELECT value FROM slots WHERE name = ?`, name).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: restore %s: %w", name, err)
	}
	return value, true, nil
}

// Persist writes through the named slot's value.
func (s *Store) Persist(name string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO slots (name, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		name, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: persist %s: %w", name, err)
	}
	return nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
