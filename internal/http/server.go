// Package http exposes the chathub REST API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"

	"chathub/docs"
	"chathub/internal/auth"
	"chathub/internal/chat"
	"chathub/internal/observability"
	"chathub/internal/storage"
)

type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Server wires the API handlers to their dependencies.
type Server struct {
	mux           *http.ServeMux
	conversations storage.ConversationStore
	settings      storage.SettingsStore
	users         auth.UserStore
	tokens        *auth.TokenIssuer
	chatSvc       *chat.Service
	logger        observability.Logger
	metrics       *observability.Metrics

	minPasswordLength int
	defaults          chat.Defaults
}

// NewServer creates a new HTTP server with the given dependencies.
// If logger is nil, a default logger will be used.
// If metrics is nil, metrics collection is disabled.
func NewServer(
	mux *http.ServeMux,
	conversations storage.ConversationStore,
	settings storage.SettingsStore,
	users auth.UserStore,
	tokens *auth.TokenIssuer,
	chatSvc *chat.Service,
	logger observability.Logger,
	metrics *observability.Metrics,
) *Server {
	if logger == nil {
		logger = observability.NewLogger(observability.DefaultConfig())
	}
	return &Server{
		mux:               mux,
		conversations:     conversations,
		settings:          settings,
		users:             users,
		tokens:            tokens,
		chatSvc:           chatSvc,
		logger:            logger,
		metrics:           metrics,
		minPasswordLength: auth.DefaultMinPasswordLength,
	}
}

// SetMinPasswordLength overrides the registration password policy.
func (s *Server) SetMinPasswordLength(n int) {
	if n > 0 {
		s.minPasswordLength = n
	}
}

// SetGenerationDefaults sets the instance-wide generation defaults returned
// for users without a stored settings record.
func (s *Server) SetGenerationDefaults(d chat.Defaults) {
	s.defaults = d
}

// RegisterRoutes registers all HTTP routes. The authenticated API surface
// must additionally be wrapped with AuthMiddleware by the caller; auth
// endpoints and health/metrics stay public.
func (s *Server) RegisterRoutes(authMW Middleware) {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/openapi.yaml", s.handleOpenAPISpec)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}

	s.mux.HandleFunc("/api/v1/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/v1/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/v1/auth/refresh", s.handleRefresh)
	s.mux.Handle("/api/v1/auth/me", authMW(http.HandlerFunc(s.handleMe)))

	s.mux.Handle("/api/v1/chat", authMW(http.HandlerFunc(s.handleChat)))
	s.mux.Handle("/api/v1/conversations", authMW(http.HandlerFunc(s.handleConversations)))
	s.mux.Handle("/api/v1/conversations/", authMW(http.HandlerFunc(s.handleConversationSubroutes)))
	s.mux.Handle("/api/v1/sessions/", authMW(http.HandlerFunc(s.handleSessionLookup)))
	s.mux.Handle("/api/v1/settings", authMW(http.HandlerFunc(s.handleSettings)))
}

func (s *Server) writeErr(ctx context.Context, w http.ResponseWriter, code int, msg string, detail string) {
	fields := []any{
		"status", code,
		"error", msg,
	}
	if detail != "" {
		fields = append(fields, "detail", detail)
	}
	if code >= 500 {
		s.logger.ErrorContext(ctx, "request failed", fields...)
		sentry.CaptureMessage(fmt.Sprintf("HTTP %d: %s (detail: %s)", code, msg, detail))
	} else {
		s.logger.WarnContext(ctx, "request failed", fields...)
	}
	writeJSON(w, code, apiError{Error: msg, Detail: detail})
}

// writeStoreErr maps a storage-layer error to the appropriate HTTP status code
// and writes the error response. It uses errors.Is() to detect sentinel errors
// from the storage package, falling back to 500 Internal Server Error for unknown errors.
func (s *Server) writeStoreErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.writeErr(ctx, w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, storage.ErrConflict):
		s.writeErr(ctx, w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, storage.ErrValidation):
		s.writeErr(ctx, w, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, storage.ErrUnavailable):
		s.writeErr(ctx, w, http.StatusServiceUnavailable, "storage unavailable", err.Error())
	default:
		s.writeErr(ctx, w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) { s.status = code; s.ResponseWriter.WriteHeader(code) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(docs.OpenAPISpec)
}
