// Package auth provides authentication for chathub: user accounts, password
// hashing, and JWT access/refresh tokens.
package auth

import (
	"errors"
	"time"
)

// User errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidPassword = errors.New("invalid password")
)

// User represents a registered account. Email is the login identifier and is
// unique. The password hash is never serialized.
type User struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	Email         string     `json:"email"`
	PasswordHash  []byte     `json:"-"`
	Image         string     `json:"image,omitempty"`
	EmailVerified *time.Time `json:"email_verified,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// copyUser creates a deep copy of a User.
func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	cpy := &User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.PasswordHash != nil {
		cpy.PasswordHash = make([]byte, len(u.PasswordHash))
		copy(cpy.PasswordHash, u.PasswordHash)
	}
	if u.EmailVerified != nil {
		t := *u.EmailVerified
		cpy.EmailVerified = &t
	}
	return cpy
}
