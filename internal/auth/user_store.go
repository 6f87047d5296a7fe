package auth

import (
	"context"
	"strings"
	"sync"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	// Create stores a new user. Returns ErrUserExists when the email is
	// already registered.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	// Returns nil, nil if not found.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns nil, nil if not found.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update modifies an existing user.
	Update(ctx context.Context, user *User) error
}

// NormalizeEmail lowercases and trims an email so lookups are
// case-insensitive across every backend.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryUserStore is an in-memory implementation of UserStore.
// Thread-safe; suitable for development and single-instance deployments.
type MemoryUserStore struct {
	mu         sync.RWMutex
	users      map[string]*User  // keyed by ID
	emailIndex map[string]string // normalized email -> ID
}

// NewMemoryUserStore creates a new in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:      make(map[string]*User),
		emailIndex: make(map[string]string),
	}
}

func (s *MemoryUserStore) Create(_ context.Context, user *User) error {
	if user == nil || user.ID == "" || user.Email == "" {
		return ErrUserNotFound
	}
	email := NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.ID]; exists {
		return ErrUserExists
	}
	if _, exists := s.emailIndex[email]; exists {
		return ErrUserExists
	}

	stored := copyUser(user)
	stored.Email = email
	s.users[user.ID] = stored
	s.emailIndex[email] = user.ID
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*User, error) {
	if id == "" {
		return nil, nil
	}

	s.mu.RLock()
	user, exists := s.users[id]
	s.mu.RUnlock()

	if !exists {
		return nil, nil
	}
	return copyUser(user), nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	if email == "" {
		return nil, nil
	}

	s.mu.RLock()
	id, exists := s.emailIndex[NormalizeEmail(email)]
	if !exists {
		s.mu.RUnlock()
		return nil, nil
	}
	user := s.users[id]
	s.mu.RUnlock()

	return copyUser(user), nil
}

func (s *MemoryUserStore) Update(_ context.Context, user *User) error {
	if user == nil || user.ID == "" {
		return ErrUserNotFound
	}
	email := NormalizeEmail(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.users[user.ID]
	if !exists {
		return ErrUserNotFound
	}

	// If email changed, update index
	if existing.Email != email {
		if _, taken := s.emailIndex[email]; taken {
			return ErrUserExists
		}
		delete(s.emailIndex, existing.Email)
		s.emailIndex[email] = user.ID
	}

	stored := copyUser(user)
	stored.Email = email
	s.users[user.ID] = stored
	return nil
}
