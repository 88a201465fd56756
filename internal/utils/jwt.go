package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the claims the Taskio backend puts in its access tokens.
type TokenClaims struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
	jwt.RegisteredClaims
}

// ReadTokenClaims decodes the claims of a backend access token without
// verifying its signature. Only the backend holds the signing secret.
func ReadTokenClaims(token string) (*TokenClaims, error) {
	if token == "" {
		return nil, errors.New("empty token")
	}
	claims := &TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// TokenExpiry returns the exp claim, or the zero time when the token has none
// or cannot be decoded.
func TokenExpiry(token string) time.Time {
	claims, err := ReadTokenClaims(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
