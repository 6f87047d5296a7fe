package storage

import (
	"context"

	"chathub/internal/domain"
)

// SettingsStore manages per-user generation defaults.
type SettingsStore interface {
	// GetUserSettings returns the stored settings for a user.
	// Returns nil, nil when the user has no stored record.
	GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error)

	// PutUserSettings stores the full settings record for a user,
	// creating or replacing it.
	PutUserSettings(ctx context.Context, settings domain.UserSettings) error
}
