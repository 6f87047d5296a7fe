// Package validation provides input validation for chathub API requests.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation error types for specific error handling.
var (
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrTooLong       = errors.New("value exceeds maximum length")
	ErrInvalidFormat = errors.New("invalid format")
)

// Constraints for validation.
const (
	MaxNameLength      = 255
	MaxEmailLength     = 254
	MaxMessageLength   = 32768
	MaxSessionIDLength = 128
	MaxModelNameLength = 128
)

// emailPattern is a pragmatic email check: one @, non-empty local part, a
// domain with at least one dot. Full RFC 5322 parsing is not the goal.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// sessionIDPattern restricts session IDs to URL-safe characters.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]+$`)

// FieldError reports which field failed validation and why.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(field, reason string, err error) error {
	return &FieldError{Field: field, Reason: reason, Err: err}
}

// ValidateEmail checks an email address. The normalized (trimmed, lowercased)
// address is returned.
func ValidateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fieldErr("email", "cannot be empty", ErrEmptyValue)
	}
	if len(email) > MaxEmailLength {
		return "", fieldErr("email", fmt.Sprintf("exceeds %d characters", MaxEmailLength), ErrTooLong)
	}
	if !emailPattern.MatchString(email) {
		return "", fieldErr("email", "not a valid address", ErrInvalidFormat)
	}
	return email, nil
}

// ValidateName checks a display name. Empty is allowed; the trimmed name is
// returned.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fieldErr("name", fmt.Sprintf("exceeds %d characters", MaxNameLength), ErrTooLong)
	}
	return name, nil
}

// ValidateMessage checks a chat message body.
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return fieldErr("message", "cannot be empty", ErrEmptyValue)
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return fieldErr("message", fmt.Sprintf("exceeds %d characters", MaxMessageLength), ErrTooLong)
	}
	return nil
}

// ValidateSessionID checks a client-supplied session identifier.
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return fieldErr("session_id", "cannot be empty", ErrEmptyValue)
	}
	if len(sessionID) > MaxSessionIDLength {
		return fieldErr("session_id", fmt.Sprintf("exceeds %d characters", MaxSessionIDLength), ErrTooLong)
	}
	if !sessionIDPattern.MatchString(sessionID) {
		return fieldErr("session_id", "contains invalid characters", ErrInvalidFormat)
	}
	return nil
}

// ValidateModelName checks an optional model override.
func ValidateModelName(model string) error {
	if model == "" {
		return nil
	}
	if len(model) > MaxModelNameLength {
		return fieldErr("model", fmt.Sprintf("exceeds %d characters", MaxModelNameLength), ErrTooLong)
	}
	return nil
}

// ValidateTemperature checks a sampling temperature.
func ValidateTemperature(temp float64) error {
	if temp < 0 || temp > 2 {
		return fieldErr("temperature", "must be between 0 and 2", ErrInvalidFormat)
	}
	return nil
}

// ValidateMaxTokens checks a completion token limit.
func ValidateMaxTokens(n int64) error {
	if n < 1 {
		return fieldErr("max_tokens", "must be positive", ErrInvalidFormat)
	}
	return nil
}
