//go:build sqlite

package auth

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteUserStore is a SQLite-backed implementation of UserStore.
type SQLiteUserStore struct {
	db *sql.DB
}

// NewSQLiteUserStoreFromDB creates a store using an existing DB connection.
// The connection is expected to have the schema migrated already.
func NewSQLiteUserStoreFromDB(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

func (s *SQLiteUserStore) Create(ctx context.Context, user *User) error {
	if user == nil || user.ID == "" || user.Email == "" {
		return ErrUserNotFound
	}
	var verified *string
	if user.EmailVerified != nil {
		v := user.EmailVerified.Format(time.RFC3339Nano)
		verified = &v
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, image, email_verified, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID, user.Name, NormalizeEmail(user.Email), user.PasswordHash, user.Image, verified,
		user.CreatedAt.Format(time.RFC3339Nano), user.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, image, email_verified, created_at, updated_at
		FROM users WHERE id = ?
	`, id))
}

func (s *SQLiteUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, image, email_verified, created_at, updated_at
		FROM users WHERE email = ?
	`, NormalizeEmail(email)))
}

func (s *SQLiteUserStore) Update(ctx context.Context, user *User) error {
	if user == nil || user.ID == "" {
		return ErrUserNotFound
	}
	var verified *string
	if user.EmailVerified != nil {
		v := user.EmailVerified.Format(time.RFC3339Nano)
		verified = &v
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = ?, email = ?, password_hash = ?, image = ?,
			email_verified = ?, updated_at = ?
		WHERE id = ?
	`,
		user.Name, NormalizeEmail(user.Email), user.PasswordHash, user.Image,
		verified, user.UpdatedAt.Format(time.RFC3339Nano), user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLiteUserStore) scanUser(row *sql.Row) (*User, error) {
	var (
		u                    User
		name, image          sql.NullString
		verified             sql.NullString
		createdAt, updatedAt string
	)

	err := row.Scan(&u.ID, &name, &u.Email, &u.PasswordHash, &image, &verified, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Name = name.String
	u.Image = image.String
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	u.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if verified.Valid {
		t, _ := time.Parse(time.RFC3339Nano, verified.String)
		u.EmailVerified = &t
	}
	return &u, nil
}
