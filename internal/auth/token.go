// Package auth issues and validates event access tokens.
//
// A token is an HS256 JWT whose subject is the event ID. Tokens are handed out
// when an event is created or joined and are required by event-scoped routes
// and the WebSocket endpoint.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when token validation fails
var ErrInvalidToken = errors.New("invalid token")

// TokenManager signs and validates event access tokens
type TokenManager struct {
	secret    []byte
	issuer    string
	ttl       time.Duration
	validator *validator.Validator
}

// NewTokenManager creates a TokenManager using a shared HMAC secret
func NewTokenManager(secret, issuer string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}

	key := []byte(secret)
	jwtValidator, err := validator.New(
		func(context.Context) (interface{}, error) { return key, nil },
		validator.HS256,
		issuer,
		[]string{issuer},
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		return nil, err
	}

	return &TokenManager{
		secret:    key,
		issuer:    issuer,
		ttl:       ttl,
		validator: jwtValidator,
	}, nil
}

// Issue creates a signed token granting access to the given event
func (m *TokenManager) Issue(eventID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    m.issuer,
		Subject:   eventID,
		Audience:  jwt.ClaimStrings{m.issuer},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks a token and returns the event ID it grants access to
func (m *TokenManager) Validate(ctx context.Context, token string) (string, error) {
	claims, err := m.validator.ValidateToken(ctx, token)
	if err != nil {
		return "", ErrInvalidToken
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok || validatedClaims.RegisteredClaims.Subject == "" {
		return "", ErrInvalidToken
	}

	return validatedClaims.RegisteredClaims.Subject, nil
}
