//go:build postgres

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"chathub/internal/domain"
	"chathub/internal/storage"
)

// GetUserSettings returns the stored settings for a user, or nil, nil when
// no record exists.
func (s *Store) GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	var out domain.UserSettings
	var assistant *string
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, default_service, default_model, temperature, max_tokens, default_assistant_id
		FROM user_settings WHERE user_id = $1
	`, userID).Scan(&out.UserID, &out.DefaultService, &out.DefaultModel, &out.Temperature, &out.MaxTokens, &assistant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.WrapUnavailable("query settings", err)
	}
	if assistant != nil {
		out.DefaultAssistantID = *assistant
	}
	return &out, nil
}

// PutUserSettings creates or replaces a user's settings record.
func (s *Store) PutUserSettings(ctx context.Context, settings domain.UserSettings) error {
	if settings.UserID == "" {
		return storage.ErrValidation
	}
	var assistant *string
	if settings.DefaultAssistantID != "" {
		assistant = &settings.DefaultAssistantID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_settings (user_id, default_service, default_model, temperature, max_tokens, default_assistant_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			default_service = excluded.default_service,
			default_model = excluded.default_model,
			temperature = excluded.temperature,
			max_tokens = excluded.max_tokens,
			default_assistant_id = excluded.default_assistant_id
	`, settings.UserID, settings.DefaultService, settings.DefaultModel, settings.Temperature, settings.MaxTokens, assistant)
	return storage.WrapUnavailable("upsert settings", err)
}
