//go:build postgres

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"chathub/internal/domain"
	"chathub/internal/storage"
)

// SaveMessage upserts the conversation for (userID, sessionID) and appends
// the message. The upsert rides the unique (user_id, session_id) constraint,
// so concurrent first writes resolve to a single conversation. Title and
// created_at are only set on insert.
func (s *Store) SaveMessage(ctx context.Context, userID, sessionID string, msg domain.Message) (string, error) {
	msg, err := storage.ValidateSaveMessage(userID, sessionID, msg)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	var convID string
	err = s.pool.QueryRow(ctx, `
		INSERT INTO conversations (id, user_id, session_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (user_id, session_id) DO UPDATE SET updated_at = excluded.updated_at
		RETURNING id
	`, uuid.New().String(), userID, sessionID, domain.ConversationTitle(msg.Content), now).Scan(&convID)
	if err != nil {
		return "", storage.WrapUnavailable("upsert conversation", err)
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	msgID := uuid.New().String()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, user_id, content, role, service, model, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, msgID, convID, userID, msg.Content, msg.Role, msg.Service, msg.Model, msg.Timestamp.UTC())
	if err != nil {
		return "", storage.WrapUnavailable("insert message", err)
	}
	return msgID, nil
}

// ConversationMessages returns all messages of a conversation sorted by
// timestamp ascending. The row identifier is not selected.
func (s *Store) ConversationMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT conversation_id, user_id, content, role, service, model, timestamp
		FROM messages WHERE conversation_id = $1 ORDER BY timestamp ASC
	`, conversationID)
	if err != nil {
		return nil, storage.WrapUnavailable("query messages", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.ConversationID, &msg.UserID, &msg.Content, &msg.Role, &msg.Service, &msg.Model, &msg.Timestamp); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// UserConversations returns conversation summaries for a user sorted by
// updated_at descending with page-offset semantics.
func (s *Store) UserConversations(ctx context.Context, userID string, limit, skip int) ([]domain.ConversationSummary, error) {
	if err := storage.ValidatePage(limit, skip); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []domain.ConversationSummary{}, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, title, session_id, created_at, updated_at
		FROM conversations WHERE user_id = $1
		ORDER BY updated_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, skip)
	if err != nil {
		return nil, storage.WrapUnavailable("query conversations", err)
	}
	defer rows.Close()

	result := []domain.ConversationSummary{}
	for rows.Next() {
		var c domain.ConversationSummary
		if err := rows.Scan(&c.ID, &c.Title, &c.SessionID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// SessionConversation looks up the conversation for an exact pair.
// Returns nil, nil when no match exists.
func (s *Store) SessionConversation(ctx context.Context, userID, sessionID string) (*domain.ConversationSummary, error) {
	var c domain.ConversationSummary
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, created_at, updated_at
		FROM conversations WHERE user_id = $1 AND session_id = $2
	`, userID, sessionID).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.WrapUnavailable("query conversation", err)
	}
	return &c, nil
}
