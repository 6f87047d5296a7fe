package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"chathub/internal/domain"
)

// pairKey is the natural key of a conversation.
type pairKey struct {
	userID    string
	sessionID string
}

// MemoryConversationStore is an in-memory implementation of ConversationStore.
// Thread-safe; suitable for development, tests, and single-instance
// deployments. Holding the mutex across the lookup-upsert-insert sequence
// makes SaveMessage atomic.
type MemoryConversationStore struct {
	mu       sync.RWMutex
	convs    map[string]domain.Conversation // keyed by conversation ID
	byPair   map[pairKey]string             // (user_id, session_id) -> conversation ID
	messages map[string][]domain.Message    // keyed by conversation ID
}

// NewMemoryConversationStore creates a new in-memory conversation store.
func NewMemoryConversationStore() *MemoryConversationStore {
	return &MemoryConversationStore{
		convs:    make(map[string]domain.Conversation),
		byPair:   make(map[pairKey]string),
		messages: make(map[string][]domain.Message),
	}
}

var _ ConversationStore = (*MemoryConversationStore)(nil)

func (m *MemoryConversationStore) SaveMessage(_ context.Context, userID, sessionID string, msg domain.Message) (string, error) {
	msg, err := ValidateSaveMessage(userID, sessionID, msg)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	key := pairKey{userID: userID, sessionID: sessionID}
	convID, ok := m.byPair[key]
	if !ok {
		convID = uuid.New().String()
		m.convs[convID] = domain.Conversation{
			ID:        convID,
			UserID:    userID,
			SessionID: sessionID,
			Title:     domain.ConversationTitle(msg.Content),
			CreatedAt: now,
			UpdatedAt: now,
		}
		m.byPair[key] = convID
	} else {
		conv := m.convs[convID]
		conv.UpdatedAt = now
		m.convs[convID] = conv
	}

	msg.ID = uuid.New().String()
	msg.ConversationID = convID
	msg.UserID = userID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	m.messages[convID] = append(m.messages[convID], msg)
	return msg.ID, nil
}

func (m *MemoryConversationStore) ConversationMessages(_ context.Context, conversationID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.messages[conversationID]
	result := make([]domain.Message, len(stored))
	copy(result, stored)
	for i := range result {
		result[i].ID = "" // storage identifier is not part of the read contract
	}

	// Stable keeps insertion order for equal timestamps.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

func (m *MemoryConversationStore) UserConversations(_ context.Context, userID string, limit, skip int) ([]domain.ConversationSummary, error) {
	if err := ValidatePage(limit, skip); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []domain.Conversation
	for _, c := range m.convs {
		if c.UserID == userID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	result := []domain.ConversationSummary{}
	for i := skip; i < len(all) && len(result) < limit; i++ {
		c := all[i]
		result = append(result, domain.ConversationSummary{
			ID:        c.ID,
			Title:     c.Title,
			SessionID: c.SessionID,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return result, nil
}

func (m *MemoryConversationStore) SessionConversation(_ context.Context, userID, sessionID string) (*domain.ConversationSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	convID, ok := m.byPair[pairKey{userID: userID, sessionID: sessionID}]
	if !ok {
		return nil, nil
	}
	c := m.convs[convID]
	return &domain.ConversationSummary{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}, nil
}
