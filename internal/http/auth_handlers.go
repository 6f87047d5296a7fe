package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"chathub/internal/auth"
	"chathub/internal/validation"
)

// tokenPair is the response body of register, login, and refresh.
type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// handleRegister creates an account and issues a token pair.
// POST /api/v1/auth/register
// Request: {"email": "...", "password": "...", "name": "..."}
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid json", "")
		return
	}

	email, err := validation.ValidateEmail(input.Email)
	if err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
		return
	}
	name, err := validation.ValidateName(input.Name)
	if err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
		return
	}
	if err := auth.ValidatePassword(input.Password, s.minPasswordLength); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to hash password", err.Error())
		return
	}

	now := time.Now().UTC()
	user := &auth.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if err == auth.ErrUserExists {
			s.writeErr(ctx, w, http.StatusConflict, "email already registered", "")
			return
		}
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to create user", err.Error())
		return
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)

	s.writeTokenPair(ctx, w, http.StatusCreated, user)
}

// handleLogin verifies credentials and issues a token pair.
// POST /api/v1/auth/login
// Request: {"email": "...", "password": "..."}
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid json", "")
		return
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to load user", err.Error())
		return
	}
	// Same response for unknown email and wrong password; no account probing.
	if user == nil || auth.VerifyPassword(input.Password, user.PasswordHash) != nil {
		s.writeErr(ctx, w, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)

	s.writeTokenPair(ctx, w, http.StatusOK, user)
}

// handleRefresh exchanges a refresh token for a new token pair.
// POST /api/v1/auth/refresh
// Request: {"refresh_token": "..."}
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeErr(ctx, w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.writeErr(ctx, w, http.StatusBadRequest, "invalid json", "")
		return
	}
	if input.RefreshToken == "" {
		s.writeErr(ctx, w, http.StatusBadRequest, "refresh_token is required", "")
		return
	}

	userID, err := s.tokens.Verify(input.RefreshToken, auth.TokenTypeRefresh)
	if err != nil {
		s.writeErr(ctx, w, http.StatusUnauthorized, "invalid refresh token", "")
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to load user", err.Error())
		return
	}
	if user == nil {
		s.writeErr(ctx, w, http.StatusUnauthorized, "invalid refresh token", "")
		return
	}

	s.writeTokenPair(ctx, w, http.StatusOK, user)
}

// handleMe returns the authenticated user's profile.
// GET /api/v1/auth/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) writeTokenPair(ctx context.Context, w http.ResponseWriter, code int, user *auth.User) {
	access, refresh, err := s.tokens.IssuePair(user)
	if err != nil {
		s.writeErr(ctx, w, http.StatusInternalServerError, "failed to issue tokens", err.Error())
		return
	}
	writeJSON(w, code, tokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	})
}
