package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		want    string
		wantErr error
	}{
		{name: "valid", email: "a@example.com", want: "a@example.com"},
		{name: "normalized", email: "  Alice@Example.COM ", want: "alice@example.com"},
		{name: "plus address", email: "a+tag@example.com", want: "a+tag@example.com"},

		{name: "empty", email: "", wantErr: ErrEmptyValue},
		{name: "whitespace only", email: "   ", wantErr: ErrEmptyValue},
		{name: "no at sign", email: "example.com", wantErr: ErrInvalidFormat},
		{name: "no domain dot", email: "a@localhost", wantErr: ErrInvalidFormat},
		{name: "embedded space", email: "a b@example.com", wantErr: ErrInvalidFormat},
		{name: "too long", email: strings.Repeat("a", 250) + "@example.com", wantErr: ErrTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateEmail(tt.email)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage("hello"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateMessage("   "); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}
	if err := ValidateMessage(strings.Repeat("x", MaxMessageLength+1)); !errors.Is(err, ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", err)
	}
}

func TestValidateSessionID(t *testing.T) {
	tests := []struct {
		name      string
		sessionID string
		wantErr   error
	}{
		{name: "uuid style", sessionID: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "dotted", sessionID: "client.42:tab_1"},
		{name: "empty", sessionID: "", wantErr: ErrEmptyValue},
		{name: "spaces", sessionID: "a b", wantErr: ErrInvalidFormat},
		{name: "slash", sessionID: "a/b", wantErr: ErrInvalidFormat},
		{name: "too long", sessionID: strings.Repeat("a", 129), wantErr: ErrTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSessionID(tt.sessionID)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateGenerationParams(t *testing.T) {
	if err := ValidateTemperature(0.7); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateTemperature(2.5); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
	if err := ValidateTemperature(-0.1); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
	if err := ValidateMaxTokens(1000); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateMaxTokens(0); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}

	var fieldErr *FieldError
	err := ValidateMaxTokens(-1)
	if !errors.As(err, &fieldErr) || fieldErr.Field != "max_tokens" {
		t.Errorf("expected FieldError for max_tokens, got %v", err)
	}
}
