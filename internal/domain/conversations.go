package domain

import (
	"time"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ValidRole reports whether role is one of the supported message roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// TitleMaxLen is the number of leading characters of the first message kept
// as the conversation title before the ellipsis marker is appended.
const TitleMaxLen = 30

// Conversation groups all messages exchanged within one user/session pair.
// Exactly one conversation exists per (user_id, session_id); it is created
// implicitly on the first message and never recreated.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSummary is the listing projection of a conversation: message
// bodies excluded, session_id omitted for single-session lookups.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	SessionID string    `json:"session_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one turn's content within a conversation. Messages are
// append-only; ConversationID is assigned by the store at insert time.
// The storage identifier is returned from SaveMessage as a receipt but
// omitted from read results.
type Message struct {
	ID             string    `json:"id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
	UserID         string    `json:"user_id"`
	Content        string    `json:"content"`
	Role           string    `json:"role"` // "user", "assistant", "system"
	Service        string    `json:"service"`
	Model          string    `json:"model"`
	Timestamp      time.Time `json:"timestamp"`
}

// ConversationTitle derives a conversation title from the first message's
// content: the content verbatim when it fits, otherwise the first TitleMaxLen
// characters with an ellipsis marker. Counted in runes, not bytes.
func ConversationTitle(content string) string {
	runes := []rune(content)
	if len(runes) > TitleMaxLen {
		return string(runes[:TitleMaxLen]) + "..."
	}
	return content
}

// ChatRequest is the input for one conversational turn.
type ChatRequest struct {
	SessionID   string   `json:"session_id"`
	Message     string   `json:"message"`
	Service     string   `json:"service,omitempty"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   *int64   `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// ChatResponse is the result of one conversational turn.
type ChatResponse struct {
	ConversationID string  `json:"conversation_id"`
	Reply          Message `json:"reply"`
}
