//go:build sqlite

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"chathub/internal/domain"
	"chathub/internal/storage"
)

// SaveMessage upserts the conversation for (userID, sessionID) and appends
// the message. The upsert is a single conditional insert on the unique
// (user_id, session_id) index, so concurrent first writes cannot create two
// conversations. Title and created_at are only set on insert.
func (s *Store) SaveMessage(ctx context.Context, userID, sessionID string, msg domain.Message) (string, error) {
	msg, err := storage.ValidateSaveMessage(userID, sessionID, msg)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	var convID string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO conversations (id, user_id, session_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, session_id) DO UPDATE SET updated_at = excluded.updated_at
		RETURNING id
	`,
		uuid.New().String(), userID, sessionID, domain.ConversationTitle(msg.Content),
		now.UnixNano(), now.UnixNano(),
	).Scan(&convID)
	if err != nil {
		return "", storage.WrapUnavailable("upsert conversation", err)
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = now
	}
	msgID := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, user_id, content, role, service, model, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		msgID, convID, userID, msg.Content, msg.Role, msg.Service, msg.Model,
		msg.Timestamp.UnixNano(),
	)
	if err != nil {
		return "", storage.WrapUnavailable("insert message", err)
	}
	return msgID, nil
}

// ConversationMessages returns all messages of a conversation sorted by
// timestamp ascending. The row identifier is not selected.
func (s *Store) ConversationMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation_id, user_id, content, role, service, model, timestamp
		FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC
	`, conversationID)
	if err != nil {
		return nil, storage.WrapUnavailable("query messages", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var ts int64
		if err := rows.Scan(&msg.ConversationID, &msg.UserID, &msg.Content, &msg.Role, &msg.Service, &msg.Model, &ts); err != nil {
			return nil, err
		}
		msg.Timestamp = time.Unix(0, ts).UTC()
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

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, session_id, created_at, updated_at
		FROM conversations WHERE user_id = ?
		ORDER BY updated_at DESC LIMIT ? OFFSET ?
	`, userID, limit, skip)
	if err != nil {
		return nil, storage.WrapUnavailable("query conversations", err)
	}
	defer rows.Close()

	result := []domain.ConversationSummary{}
	for rows.Next() {
		var c domain.ConversationSummary
		var createdAt, updatedAt int64
		if err := rows.Scan(&c.ID, &c.Title, &c.SessionID, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(0, createdAt).UTC()
		c.UpdatedAt = time.Unix(0, updatedAt).UTC()
		result = append(result, c)
	}
	return result, rows.Err()
}

// SessionConversation looks up the conversation for an exact pair.
// Returns nil, nil when no match exists.
func (s *Store) SessionConversation(ctx context.Context, userID, sessionID string) (*domain.ConversationSummary, error) {
	var c domain.ConversationSummary
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at
		FROM conversations WHERE user_id = ? AND session_id = ?
	`, userID, sessionID).Scan(&c.ID, &c.Title, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storage.WrapUnavailable("query conversation", err)
	}
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	c.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &c, nil
}
