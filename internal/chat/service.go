// Package chat implements a single conversational turn: resolve the caller's
// generation settings, gather prior context, call the model provider, and
// persist both sides of the exchange.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chathub/internal/domain"
	"chathub/internal/llm"
	"chathub/internal/observability"
	"chathub/internal/storage"
)

// Defaults are the instance-wide generation defaults applied when neither the
// request nor the user's stored settings name a value.
type Defaults struct {
	Service     string
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Service orchestrates chat turns.
type Service struct {
	conversations storage.ConversationStore
	settings      storage.SettingsStore
	registry      *llm.Registry
	defaults      Defaults
	logger        observability.Logger
	metrics       *observability.Metrics
}

// NewService creates a chat service.
func NewService(conversations storage.ConversationStore, settings storage.SettingsStore, registry *llm.Registry, defaults Defaults, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NewLogger(observability.DefaultConfig())
	}
	return &Service{
		conversations: conversations,
		settings:      settings,
		registry:      registry,
		defaults:      defaults,
		logger:        logger.WithComponent("chat"),
	}
}

// SetMetrics enables provider call and token usage metrics. A nil collector
// leaves them off.
func (s *Service) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// Turn runs one conversational turn for a user. The user's prompt is
// persisted before the provider call; if the provider then fails, the prompt
// stays recorded and the error is returned to the caller.
func (s *Service) Turn(ctx context.Context, userID string, req domain.ChatRequest) (*domain.ChatResponse, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", storage.ErrValidation)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", storage.ErrValidation)
	}
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", storage.ErrValidation)
	}

	service, model, opts, err := s.resolve(ctx, userID, req)
	if err != nil {
		return nil, err
	}
	provider, err := s.registry.Get(service)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrValidation, err)
	}

	history, err := s.history(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	userMsg := domain.Message{
		UserID:  userID,
		Content: req.Message,
		Role:    domain.RoleUser,
		Service: service,
		Model:   model,
	}
	if _, err := s.conversations.SaveMessage(ctx, userID, req.SessionID, userMsg); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	prompt := append(history, llm.Message{Role: domain.RoleUser, Content: req.Message})
	callStart := time.Now()
	resp, err := provider.Complete(ctx, prompt, opts)
	if s.metrics != nil {
		s.metrics.RecordProviderCall(service, time.Since(callStart), err)
	}
	if err != nil {
		// The user message is already persisted; it stays so the caller can
		// retry the turn without losing their prompt.
		s.logger.ErrorContext(ctx, "provider call failed after user message persisted",
			"service", service, "model", model, "error", err)
		return nil, fmt.Errorf("complete: %w", err)
	}

	assistantMsg := domain.Message{
		UserID:    userID,
		Content:   resp.Content,
		Role:      domain.RoleAssistant,
		Service:   service,
		Model:     resp.Model,
		Timestamp: time.Now().UTC(),
	}
	if _, err := s.conversations.SaveMessage(ctx, userID, req.SessionID, assistantMsg); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist assistant reply",
			"service", service, "error", err)
		return nil, fmt.Errorf("save assistant message: %w", err)
	}

	conv, err := s.conversations.SessionConversation(ctx, userID, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	var conversationID string
	if conv != nil {
		conversationID = conv.ID
	}

	if s.metrics != nil {
		s.metrics.RecordTokenUsage(service, resp.PromptTokens, resp.OutputTokens)
	}
	s.logger.InfoContext(ctx, "chat turn completed",
		"service", service, "model", resp.Model,
		"prompt_tokens", resp.PromptTokens, "output_tokens", resp.OutputTokens)

	return &domain.ChatResponse{
		ConversationID: conversationID,
		Reply:          assistantMsg,
	}, nil
}

// resolve layers generation parameters: request over stored settings over
// instance defaults.
func (s *Service) resolve(ctx context.Context, userID string, req domain.ChatRequest) (service, model string, opts llm.Options, err error) {
	service = s.defaults.Service
	model = s.defaults.Model
	opts.Temperature = s.defaults.Temperature
	opts.MaxTokens = s.defaults.MaxTokens

	stored, err := s.settings.GetUserSettings(ctx, userID)
	if err != nil {
		return "", "", llm.Options{}, fmt.Errorf("load settings: %w", err)
	}
	if stored != nil {
		if stored.DefaultService != "" {
			service = stored.DefaultService
		}
		if stored.DefaultModel != "" {
			model = stored.DefaultModel
		}
		// A stored record carries the full parameter set; settings updates
		// merge the patch into the current values before persisting. So a
		// stored temperature is authoritative even at 0 (deterministic
		// sampling). MaxTokens 0 is never a valid stored value and falls
		// back to the instance default.
		opts.Temperature = stored.Temperature
		if stored.MaxTokens > 0 {
			opts.MaxTokens = stored.MaxTokens
		}
	}

	if req.Service != "" {
		service = req.Service
		// A service switch invalidates a settings-level model unless the
		// request names one too.
		if req.Model == "" && (stored == nil || stored.DefaultService != req.Service) {
			model = ""
		}
	}
	if req.Model != "" {
		model = req.Model
	}
	if req.Temperature != nil {
		opts.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		opts.MaxTokens = *req.MaxTokens
	}
	opts.Model = model
	return service, model, opts, nil
}

// history loads prior messages of the session's conversation as provider
// input. A fresh session yields no context.
func (s *Service) history(ctx context.Context, userID, sessionID string) ([]llm.Message, error) {
	conv, err := s.conversations.SessionConversation(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if conv == nil {
		return nil, nil
	}
	msgs, err := s.conversations.ConversationMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out, nil
}
