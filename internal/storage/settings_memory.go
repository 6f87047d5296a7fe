package storage

import (
	"context"
	"sync"

	"chathub/internal/domain"
)

// MemorySettingsStore is an in-memory implementation of SettingsStore.
type MemorySettingsStore struct {
	mu       sync.RWMutex
	settings map[string]domain.UserSettings // keyed by user ID
}

// NewMemorySettingsStore creates a new in-memory settings store.
func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{settings: make(map[string]domain.UserSettings)}
}

var _ SettingsStore = (*MemorySettingsStore)(nil)

func (s *MemorySettingsStore) GetUserSettings(_ context.Context, userID string) (*domain.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.settings[userID]
	if !ok {
		return nil, nil
	}
	copy := stored
	return &copy, nil
}

func (s *MemorySettingsStore) PutUserSettings(_ context.Context, settings domain.UserSettings) error {
	if settings.UserID == "" {
		return errorf("user_id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.UserID] = settings
	return nil
}
