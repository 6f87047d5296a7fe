package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"chathub/internal/auth"
	"chathub/internal/domain"
	"chathub/internal/storage"
	"chathub/internal/validation"
)

// handleChat runs one conversational turn.
// POST /api/v1/chat
// Request: {"session_id": "...", "message": "...", "service": "...", "model": "...", "temperature": 0.7, "max_tokens": 1000}
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	user := auth.UserFromContext(ctx)
	if user == nil {
		s.writeErr(ctx, w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	var req domain.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := validation.ValidateSessionID(req.SessionID); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := validation.ValidateMessage(req.Message); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := validation.ValidateModelName(req.Model); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
		return
	}
	if req.Temperature != nil {
		if err := validation.ValidateTemperature(*req.Temperature); err != nil {
			s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
			return
		}
	}
	if req.MaxTokens != nil {
		if err := validation.ValidateMaxTokens(*req.MaxTokens); err != nil {
			s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
			return
		}
	}

	resp, err := s.chatSvc.Turn(ctx, user.ID, req)
	if err != nil {
		if errors.Is(err, storage.ErrValidation) || errors.Is(err, storage.ErrUnavailable) {
			s.writeStoreErr(ctx, w, err)
			return
		}
		// Upstream provider failure. The user's prompt is already saved.
		s.writeErr(ctx, w, http.StatusBadGateway, "chat completion failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
