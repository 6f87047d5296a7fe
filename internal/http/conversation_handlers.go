package http

import (
	"net/http"
	"strconv"
	"strings"

	"chathub/internal/auth"
	"chathub/internal/domain"
	"chathub/internal/storage"
)

// handleConversations lists the caller's conversations, most recently
// updated first.
// GET /api/v1/conversations?limit=20&skip=0
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	user := auth.UserFromContext(ctx)
	if user == nil {
		s.writeErr(ctx, w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	limit := storage.DefaultConversationLimit
	skip := 0
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeErr(ctx, w, http.StatusBadRequest, "limit must be an integer", "")
			return
		}
		limit = n
	}
	if v := q.Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeErr(ctx, w, http.StatusBadRequest, "skip must be an integer", "")
			return
		}
		skip = n
	}

	convs, err := s.conversations.UserConversations(ctx, user.ID, limit, skip)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	response := struct {
		Conversations []domain.ConversationSummary `json:"conversations"`
		Limit         int                          `json:"limit"`
		Skip          int                          `json:"skip"`
	}{
		Conversations: convs,
		Limit:         limit,
		Skip:          skip,
	}
	writeJSON(w, http.StatusOK, response)
}

// handleConversationSubroutes handles /api/v1/conversations/{id}/messages.
func (s *Server) handleConversationSubroutes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	path := strings.TrimPrefix(r.URL.Path, "/api/v1/conversations/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "messages" {
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	user := auth.UserFromContext(ctx)
	if user == nil {
		s.writeErr(ctx, w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	msgs, err := s.conversations.ConversationMessages(ctx, parts[0])
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}

	// Messages carry the owner's user_id; a foreign conversation reads as
	// someone else's history and is withheld.
	for _, m := range msgs {
		if m.UserID != "" && m.UserID != user.ID {
			s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
			return
		}
	}

	response := struct {
		Messages []domain.Message `json:"messages"`
	}{Messages: msgs}
	writeJSON(w, http.StatusOK, response)
}

// handleSessionLookup resolves a session ID to its conversation summary.
// GET /api/v1/sessions/{session_id}
func (s *Server) handleSessionLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/"), "/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	user := auth.UserFromContext(ctx)
	if user == nil {
		s.writeErr(ctx, w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	conv, err := s.conversations.SessionConversation(ctx, user.ID, sessionID)
	if err != nil {
		s.writeStoreErr(ctx, w, err)
		return
	}
	if conv == nil {
		s.writeErr(ctx, w, http.StatusNotFound, "no conversation for session", "")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
