package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims are the claims carried by a session token. Deliberately no
// role or email: both are re-read from the user record on every request,
// so role changes take effect without reissuing tokens.
type TokenClaims struct {
	UserID    string `json:"user_id"` // UUID stored as string in token
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// generateActionToken creates a cryptographically secure random token for
// the single-use flows (password reset, email verification). 32 bytes of
// entropy makes collisions and guessing a non-concern.
func generateActionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
