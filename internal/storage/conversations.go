package storage

import (
	"context"

	"chathub/internal/domain"
)

// DefaultConversationLimit is the page size used when a caller does not
// specify one.
const DefaultConversationLimit = 20

// ConversationStore provides durable storage for conversations and their
// append-only message logs, keyed on the (user_id, session_id) pair.
//
// Implementations must make the conversation upsert atomic: two concurrent
// SaveMessage calls for the same new pair may never create two conversations.
// The conversation upsert and the message insert are not required to share a
// transaction; a crash between them leaves an empty conversation that heals
// on the next write.
type ConversationStore interface {
	// SaveMessage upserts the conversation for (userID, sessionID), stamps
	// the message with the resolved conversation ID, and appends it. The
	// conversation title is derived from the message content on creation
	// and never recomputed. A zero message timestamp defaults to now;
	// caller-supplied timestamps are preserved to allow backfilled inserts.
	// Returns the generated message ID.
	SaveMessage(ctx context.Context, userID, sessionID string, msg domain.Message) (string, error)

	// ConversationMessages returns all messages of a conversation sorted by
	// timestamp ascending, with the storage identifier omitted. A missing or
	// empty conversation yields an empty slice, not an error.
	ConversationMessages(ctx context.Context, conversationID string) ([]domain.Message, error)

	// UserConversations returns the user's conversation summaries sorted by
	// updated_at descending, skipping skip records and returning at most
	// limit. limit and skip must be non-negative; limit 0 yields an empty
	// slice.
	UserConversations(ctx context.Context, userID string, limit, skip int) ([]domain.ConversationSummary, error)

	// SessionConversation looks up the conversation for an exact
	// (userID, sessionID) pair. Returns nil, nil when no match exists; the
	// summary's SessionID field is left empty.
	SessionConversation(ctx context.Context, userID, sessionID string) (*domain.ConversationSummary, error)
}

// ValidateSaveMessage checks SaveMessage inputs before any write is
// attempted. An empty role defaults to "user"; the normalized message is
// returned.
func ValidateSaveMessage(userID, sessionID string, msg domain.Message) (domain.Message, error) {
	if userID == "" {
		return msg, errorf("user_id is required")
	}
	if sessionID == "" {
		return msg, errorf("session_id is required")
	}
	if msg.Content == "" {
		return msg, errorf("message content is required")
	}
	if msg.Role == "" {
		msg.Role = domain.RoleUser
	}
	if !domain.ValidRole(msg.Role) {
		return msg, errorf("invalid role %q", msg.Role)
	}
	if msg.Service == "" {
		return msg, errorf("message service is required")
	}
	if msg.Model == "" {
		return msg, errorf("message model is required")
	}
	return msg, nil
}

// ValidatePage checks limit/skip pagination arguments.
func ValidatePage(limit, skip int) error {
	if limit < 0 {
		return errorf("limit must be non-negative")
	}
	if skip < 0 {
		return errorf("skip must be non-negative")
	}
	return nil
}
