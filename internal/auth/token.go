package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

// Token errors.
var (
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Token types carried in the token_type claim. Refresh tokens are only
// accepted by the refresh endpoint; access tokens everywhere else.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const tokenIssuer = "chathub"

// tokenClaims is the registered claim set plus our private claims.
type tokenClaims struct {
	jwt.Claims
	TokenType string `json:"token_type"`
	Email     string `json:"email,omitempty"`
}

// TokenIssuer mints and verifies HS256-signed JWTs for API authentication.
type TokenIssuer struct {
	signer     jose.Signer
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer builds a token issuer from a shared secret. The secret must
// be at least 32 bytes; shorter keys make HS256 brute-forceable.
func NewTokenIssuer(secret []byte, accessTTL, refreshTTL time.Duration) (*TokenIssuer, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: secret},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}
	return &TokenIssuer{
		signer:     signer,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// IssuePair mints an access and a refresh token for a user.
func (t *TokenIssuer) IssuePair(user *User) (access, refresh string, err error) {
	access, err = t.issue(user, TokenTypeAccess, t.accessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = t.issue(user, TokenTypeRefresh, t.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (t *TokenIssuer) issue(user *User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Claims: jwt.Claims{
			Issuer:   tokenIssuer,
			Subject:  user.ID,
			IssuedAt: jwt.NewNumericDate(now),
			Expiry:   jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: tokenType,
	}
	if tokenType == TokenTypeAccess {
		claims.Email = user.Email
	}
	raw, err := jwt.Signed(t.signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return raw, nil
}

// Verify parses and validates a token, checking signature, expiry and token
// type. Returns the subject user ID on success.
func (t *TokenIssuer) Verify(raw, wantType string) (string, error) {
	parsed, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return "", ErrTokenInvalid
	}
	var claims tokenClaims
	if err := parsed.Claims(t.secret, &claims); err != nil {
		return "", ErrTokenInvalid
	}
	err = claims.Validate(jwt.Expected{
		Issuer: tokenIssuer,
		Time:   time.Now(),
	})
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}
	if claims.TokenType != wantType {
		return "", ErrWrongTokenType
	}
	if claims.Subject == "" {
		return "", ErrTokenInvalid
	}
	return claims.Subject, nil
}
