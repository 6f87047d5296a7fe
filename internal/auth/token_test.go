package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testIssuer(t *testing.T, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer([]byte(strings.Repeat("s", 32)), accessTTL, refreshTTL)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	return issuer
}

func TestTokenIssuerRejectsShortSecret(t *testing.T) {
	if _, err := NewTokenIssuer([]byte("short"), time.Hour, 24*time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestIssueAndVerifyPair(t *testing.T) {
	issuer := testIssuer(t, time.Hour, 24*time.Hour)
	user := &User{ID: "user-1", Email: "a@example.com"}

	access, refresh, err := issuer.IssuePair(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if access == refresh {
		t.Fatal("access and refresh tokens should differ")
	}

	sub, err := issuer.Verify(access, TokenTypeAccess)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("subject = %q", sub)
	}

	sub, err = issuer.Verify(refresh, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("subject = %q", sub)
	}
}

func TestVerifyRejectsWrongType(t *testing.T) {
	issuer := testIssuer(t, time.Hour, 24*time.Hour)
	access, refresh, err := issuer.IssuePair(&User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := issuer.Verify(refresh, TokenTypeAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
	if _, err := issuer.Verify(access, TokenTypeRefresh); !errors.Is(err, ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := testIssuer(t, -time.Minute, 24*time.Hour)
	access, _, err := issuer.IssuePair(&User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(access, TokenTypeAccess); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	issuer := testIssuer(t, time.Hour, 24*time.Hour)
	access, _, err := issuer.IssuePair(&User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	otherIssuer, err := NewTokenIssuer([]byte(strings.Repeat("x", 32)), time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	if _, err := otherIssuer.Verify(access, TokenTypeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
	if _, err := issuer.Verify("not.a.jwt", TokenTypeAccess); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestMemoryUserStore(t *testing.T) {
	ctx := t.Context()
	store := NewMemoryUserStore()

	now := time.Now().UTC()
	u := &User{ID: "u1", Email: "Alice@Example.com", Name: "Alice", CreatedAt: now, UpdatedAt: now}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Duplicate email is rejected even with different casing.
	dup := &User{ID: "u2", Email: "alice@example.com", CreatedAt: now, UpdatedAt: now}
	if err := store.Create(ctx, dup); err != ErrUserExists {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	got, err := store.GetByEmail(ctx, "ALICE@example.com")
	if err != nil || got == nil {
		t.Fatalf("get by email: %v %v", got, err)
	}
	if got.ID != "u1" {
		t.Fatalf("id = %q", got.ID)
	}

	missing, err := store.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for unknown id; got %v, %v", missing, err)
	}

	got.Name = "Alice B"
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = store.GetByID(ctx, "u1")
	if got.Name != "Alice B" {
		t.Fatalf("name = %q", got.Name)
	}
}
