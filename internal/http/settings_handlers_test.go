package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"chathub/internal/domain"
)

func getSettings(t *testing.T, env *testEnv, token string) domain.UserSettings {
	t.Helper()
	rr := doJSON(t, env.mux, http.MethodGet, "/api/v1/settings", "", token, http.StatusOK)
	var s domain.UserSettings
	if err := json.Unmarshal(rr.Body.Bytes(), &s); err != nil {
		t.Fatalf("unmarshal settings: %v", err)
	}
	return s
}

func TestSettingsDefaultsForNewUser(t *testing.T) {
	env := setupTestServer(t)
	token := registerUser(t, env, "fresh@example.com")

	s := getSettings(t, env, token)
	if s.DefaultService != "openai" {
		t.Fatalf("default_service = %q", s.DefaultService)
	}
	if s.DefaultModel != "gpt-3.5-turbo" {
		t.Fatalf("default_model = %q", s.DefaultModel)
	}
	if s.Temperature != 0.7 {
		t.Fatalf("temperature = %v", s.Temperature)
	}
	if s.MaxTokens != 1000 {
		t.Fatalf("max_tokens = %d", s.MaxTokens)
	}
}

func TestSettingsPartialUpdate(t *testing.T) {
	env := setupTestServer(t)
	token := registerUser(t, env, "tuner@example.com")

	rr := doJSON(t, env.mux, http.MethodPut, "/api/v1/settings",
		`{"temperature": 0.2}`, token, http.StatusOK)
	var s domain.UserSettings
	if err := json.Unmarshal(rr.Body.Bytes(), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Temperature != 0.2 {
		t.Fatalf("temperature = %v, want 0.2", s.Temperature)
	}
	// Untouched fields keep their defaults.
	if s.DefaultService != "openai" || s.MaxTokens != 1000 {
		t.Fatalf("unexpected merged settings: %+v", s)
	}

	// A second patch builds on the stored record, not the defaults.
	doJSON(t, env.mux, http.MethodPut, "/api/v1/settings",
		`{"default_model": "gpt-4"}`, token, http.StatusOK)
	s = getSettings(t, env, token)
	if s.Temperature != 0.2 || s.DefaultModel != "gpt-4" {
		t.Fatalf("patches did not accumulate: %+v", s)
	}
}

func TestSettingsValidation(t *testing.T) {
	env := setupTestServer(t)
	token := registerUser(t, env, "strict@example.com")

	cases := []struct {
		name string
		body string
	}{
		{"temperature out of range", `{"temperature": 2.5}`},
		{"negative max tokens", `{"max_tokens": -5}`},
		{"empty service", `{"default_service": ""}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doJSON(t, env.mux, http.MethodPut, "/api/v1/settings", tc.body, token, http.StatusBadRequest)
		})
	}

	// Nothing was stored by the rejected patches.
	s := getSettings(t, env, token)
	if s.Temperature != 0.7 {
		t.Fatalf("settings changed by invalid patch: %+v", s)
	}
}

func TestSettingsFlowIntoChat(t *testing.T) {
	env := setupTestServer(t)
	token := registerUser(t, env, "flows@example.com")

	doJSON(t, env.mux, http.MethodPut, "/api/v1/settings",
		`{"default_model": "gpt-4", "max_tokens": 64}`, token, http.StatusOK)
	doJSON(t, env.mux, http.MethodPost, "/api/v1/chat",
		`{"session_id": "s", "message": "hi"}`, token, http.StatusOK)

	if env.provider.lastOpts.Model != "gpt-4" {
		t.Fatalf("provider model = %q, want stored default", env.provider.lastOpts.Model)
	}
	if env.provider.lastOpts.MaxTokens != 64 {
		t.Fatalf("provider max tokens = %d, want 64", env.provider.lastOpts.MaxTokens)
	}
}
