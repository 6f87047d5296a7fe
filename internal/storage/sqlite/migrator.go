//go:build sqlite

package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// migration is one versioned schema step. Versions must be unique and are
// applied in ascending order; each runs in its own transaction.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "create_conversations",
		sql: `
-- Timestamps are INTEGER Unix nanoseconds so ORDER BY compares numbers,
-- not formatted strings.
CREATE TABLE IF NOT EXISTS conversations (
    id         TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    session_id TEXT NOT NULL,
    title      TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE(user_id, session_id)
);
CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS messages (
    id              TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL REFERENCES conversations(id),
    user_id         TEXT NOT NULL,
    content         TEXT NOT NULL,
    role            TEXT NOT NULL,
    service         TEXT NOT NULL,
    model           TEXT NOT NULL,
    timestamp       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp);
`,
	},
	{
		version: 2,
		name:    "create_users",
		sql: `
CREATE TABLE IF NOT EXISTS users (
    id             TEXT PRIMARY KEY,
    name           TEXT,
    email          TEXT NOT NULL UNIQUE,
    password_hash  BLOB NOT NULL,
    image          TEXT,
    email_verified TEXT,
    created_at     TEXT NOT NULL,
    updated_at     TEXT NOT NULL
);
`,
	},
	{
		version: 3,
		name:    "create_user_settings",
		sql: `
CREATE TABLE IF NOT EXISTS user_settings (
    user_id              TEXT PRIMARY KEY,
    default_service      TEXT NOT NULL,
    default_model        TEXT NOT NULL,
    temperature          REAL NOT NULL,
    max_tokens           INTEGER NOT NULL,
    default_assistant_id TEXT
);
`,
	},
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, name TEXT NOT NULL, applied_at TEXT NOT NULL)`); err != nil {
		return err
	}

	applied := map[int]bool{}
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d_%s failed: %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name, applied_at) VALUES(?, ?, ?)`,
			m.version, m.name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Status returns a short summary of applied migrations for the given DSN.
func Status(dsn string) (string, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return "", err
	}
	defer db.Close()
	var count, latest int
	_ = db.QueryRow(`SELECT COUNT(1), COALESCE(MAX(version),0) FROM schema_migrations`).Scan(&count, &latest)
	return fmt.Sprintf("applied=%d latest=%d defined=%d", count, latest, len(migrations)), nil
}
