//go:build postgres

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserStore is a PostgreSQL-backed implementation of UserStore.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStoreFromPool creates a store using an existing pool.
// The database is expected to have the schema migrated already.
func NewPostgresUserStoreFromPool(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

func (s *PostgresUserStore) Create(ctx context.Context, user *User) error {
	if user == nil || user.ID == "" || user.Email == "" {
		return ErrUserNotFound
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, image, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		user.ID, nullIfEmpty(user.Name), NormalizeEmail(user.Email), user.PasswordHash,
		nullIfEmpty(user.Image), user.EmailVerified, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, image, email_verified, created_at, updated_at
		FROM users WHERE id = $1
	`, id))
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, image, email_verified, created_at, updated_at
		FROM users WHERE email = $1
	`, NormalizeEmail(email)))
}

func (s *PostgresUserStore) Update(ctx context.Context, user *User) error {
	if user == nil || user.ID == "" {
		return ErrUserNotFound
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET name = $1, email = $2, password_hash = $3, image = $4,
			email_verified = $5, updated_at = $6
		WHERE id = $7
	`,
		nullIfEmpty(user.Name), NormalizeEmail(user.Email), user.PasswordHash,
		nullIfEmpty(user.Image), user.EmailVerified, user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *PostgresUserStore) scanUser(row pgx.Row) (*User, error) {
	var (
		u           User
		name, image *string
	)
	err := row.Scan(&u.ID, &name, &u.Email, &u.PasswordHash, &image, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if name != nil {
		u.Name = *name
	}
	if image != nil {
		u.Image = *image
	}
	return &u, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
