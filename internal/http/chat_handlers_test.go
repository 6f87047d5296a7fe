package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"chathub/internal/domain"
)

func TestChatTurn(t *testing.T) {
	env := setupTestServer(t)
	token := registerUser(t, env, "chat@example.com")

	body := `{"session_id": "sess-1", "message": "Hello from the test suite"}`
	rr := doJSON(t, env.mux, http.MethodPost, "/api/v1/chat", body, token, http.StatusOK)

	var resp domain.ChatResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("expected conversation_id in response")
	}
	if resp.Reply.Role != domain.RoleAssistant {
		t.Fatalf("reply role = %q, want assistant", resp.Reply.Role)
	}
	if resp.Reply.Content != "scripted reply" {
		t.Fatalf("reply content = %q", resp.Reply.Content)
	}
	if env.provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", env.provider.calls)
	}

	// Both sides of the turn are on the record.
	rr = doJSON(t, env.mux, http.MethodGet, "/api/v1/conversations/"+resp.ConversationID+"/messages", "", token, http.StatusOK)
	var page struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("unmarshal messages: %v", err)
	}
	if len(page.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(page.Messages))
	}
	if page.Messages[0].Role != domain.RoleUser || page.Messages[1].Role != domain.RoleAssistant {
		t.Fatalf("unexpected roles: %q, %q", page.Messages[0].Role, page.Messages[1].Role)
	}
}

func TestChatSecondTurnCarriesHistory(t *testing.T) {
	env := setupTestServer(t)
	token := registerUser(t, env, "history@example.com")

	doJSON(t, env.mux, http.MethodPost, "/api/v1/chat",
		`{"session_id": "sess-1", "message": "first"}`, token, http.StatusOK)
	doJSON(t, env.mux, http.MethodPost, "/api/v1/chat",
		`{"session_id": "sess-1", "message": "second"}`, token, http.StatusOK)

	// first user turn, assistant reply, second user turn
	if len(env.provider.lastMsgs) != 3 {
		t.Fatalf("prompt length = %d, want 3", len(env.provider.lastMsgs))
	}
	if env.provider.lastMsgs[2].Content != "second" {
		t.Fatalf("last prompt message = %q", env.provider.lastMsgs[2].Content)
	}
}

func TestChatProviderFailureKeepsUserMessage(t *testing.T) {
	env := setupTestServer(t)
	token := registerUser(t, env, "failure@example.com")

	env.provider.err = errors.New("upstream exploded")
	rr := doJSON(t, env.mux, http.MethodPost, "/api/v1/chat",
		`{"session_id": "sess-1", "message": "doomed prompt"}`, token, http.StatusBadGateway)

	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if apiErr.Error != "chat completion failed" {
		t.Fatalf("error = %q", apiErr.Error)
	}

	// The user's prompt survived the failed completion.
	env.provider.err = nil
	rr = doJSON(t, env.mux, http.MethodGet, "/api/v1/sessions/sess-1", "", token, http.StatusOK)
	var conv domain.ConversationSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &conv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rr = doJSON(t, env.mux, http.MethodGet, "/api/v1/conversations/"+conv.ID+"/messages", "", token, http.StatusOK)
	var page struct {
		Messages []domain.Message `json:"messages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &page); err != nil {
		t.Fatalf("unmarshal messages: %v", err)
	}
	if len(page.Messages) != 1 || page.Messages[0].Content != "doomed prompt" {
		t.Fatalf("unexpected messages after failure: %+v", page.Messages)
	}
}

func TestChatValidation(t *testing.T) {
	env := setupTestServer(t)
	token := registerUser(t, env, "valid@example.com")

	cases := []struct {
		name string
		body string
	}{
		{"missing session", `{"message": "hi"}`},
		{"missing message", `{"session_id": "sess-1"}`},
		{"session id with spaces", `{"session_id": "has spaces", "message": "hi"}`},
		{"temperature too high", `{"session_id": "s", "message": "hi", "temperature": 3.5}`},
		{"zero max tokens", `{"session_id": "s", "message": "hi", "max_tokens": 0}`},
		{"unknown service", `{"session_id": "s", "message": "hi", "service": "nonesuch"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doJSON(t, env.mux, http.MethodPost, "/api/v1/chat", tc.body, token, http.StatusBadRequest)
		})
	}
	if env.provider.calls != 0 {
		t.Fatalf("provider must not be called for invalid requests, got %d calls", env.provider.calls)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	env := setupTestServer(t)
	token := registerUser(t, env, "method@example.com")
	doJSON(t, env.mux, http.MethodGet, "/api/v1/chat", "", token, http.StatusMethodNotAllowed)
}
