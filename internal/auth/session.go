package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	// SessionDuration is the session lifetime issued at login (24 hours).
	SessionDuration = 24 * time.Hour

	// TokenLength is the length of generated session tokens in bytes.
	TokenLength = 32

	// SessionCookieName is the cookie carrying the session token for
	// browser clients. API clients may send the same token in the
	// X-Session-Id header instead.
	SessionCookieName = "attend.session"

	// SessionHeaderName is the header alternative to the session cookie.
	SessionHeaderName = "X-Session-Id"
)

// GenerateSessionToken generates a cryptographically random session token.
// Returns the token (hex string) and its SHA-256 hex hash for storage. Only
// the hash is ever persisted; a leaked sessions table yields no usable
// credentials.
func GenerateSessionToken() (token string, tokenHash string, err error) {
	raw := make([]byte, TokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate random token: %w", err)
	}

	token = hex.EncodeToString(raw)
	return token, HashToken(token), nil
}

// HashToken hashes a session token for storage and lookup.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CalculateExpiry returns the expiry instant for a session created at the
// given time.
func CalculateExpiry(createdAt time.Time) time.Time {
	return createdAt.Add(SessionDuration)
}
