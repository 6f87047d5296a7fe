//go:build sqlite

// Package sqlite provides SQLite-backed persistence using the CGO-less
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite" // CGO-less SQLite driver

	"chathub/internal/storage"
)

// Store implements storage.ConversationStore and storage.SettingsStore
// backed by SQLite.
type Store struct {
	db *sql.DB
}

var (
	_ storage.ConversationStore = (*Store)(nil)
	_ storage.SettingsStore     = (*Store)(nil)
)

// New opens (or creates) the database at dsn and applies pending migrations.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, storage.WrapUnavailable("open sqlite", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, storage.WrapUnavailable("set pragmas", err)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewFromDB creates a Store using an existing DB connection. Migrations are
// NOT run.
func NewFromDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection for shared access (user store).
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return storage.WrapUnavailable("ping", s.db.PingContext(ctx))
}
