//go:build sqlite

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"chathub/internal/domain"
	"chathub/internal/storage"
)

// GetUserSettings returns the stored settings for a user, or nil, nil when
// no record exists.
func (s *Store) GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	var out domain.UserSettings
	var assistant sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, default_service, default_model, temperature, max_tokens, default_assistant_id
		FROM user_settings WHERE user_id = ?
	`, userID).Scan(&out.UserID, &out.DefaultService, &out.DefaultModel, &out.Temperature, &out.MaxTokens, &assistant)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.WrapUnavailable("query settings", err)
	}
	if assistant.Valid {
		out.DefaultAssistantID = assistant.String
	}
	return &out, nil
}

// PutUserSettings creates or replaces a user's settings record.
func (s *Store) PutUserSettings(ctx context.Context, settings domain.UserSettings) error {
	if settings.UserID == "" {
		return storage.ErrValidation
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, default_service, default_model, temperature, max_tokens, default_assistant_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			default_service = excluded.default_service,
			default_model = excluded.default_model,
			temperature = excluded.temperature,
			max_tokens = excluded.max_tokens,
			default_assistant_id = excluded.default_assistant_id
	`,
		settings.UserID, settings.DefaultService, settings.DefaultModel,
		settings.Temperature, settings.MaxTokens, nullIfEmpty(settings.DefaultAssistantID),
	)
	return storage.WrapUnavailable("upsert settings", err)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
