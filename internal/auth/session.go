// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session token configuration.
const (
	SessionTokenBytes = 32             // 32 bytes = 64 hex chars
	CSRFTokenBytes    = 32             // anti-forgery token size
	DefaultSessionTTL = 24 * time.Hour // default expiry for new sessions
)

// Session represents one browser/client context. IdentityID is nil for
// anonymous sessions; binding is set on login and cleared on logout.
// The CSRF token is tied 1:1 to the session and embedded in every
// rendered form.
type Session struct {
	ID         ulid.ULID
	IdentityID *ulid.ULID // nil while anonymous
	TokenHash  string
	CSRFToken  string
	UserAgent  string
	IPAddress  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// NewSession creates a validated anonymous Session.
// UserAgent and IPAddress are optional and may be empty.
func NewSession(tokenHash, csrfToken, userAgent, ipAddress string, expiresAt time.Time) (*Session, error) {
	if tokenHash == "" {
		return nil, oops.Code("SESSION_INVALID_HASH").Errorf("token hash cannot be empty")
	}
	if csrfToken == "" {
		return nil, oops.Code("SESSION_INVALID_CSRF").Errorf("csrf token cannot be empty")
	}
	if expiresAt.IsZero() {
		return nil, oops.Code("SESSION_INVALID_EXPIRY").Errorf("expiry time cannot be zero")
	}

	now := time.Now()
	return &Session{
		ID:         ulid.Make(),
		TokenHash:  tokenHash,
		CSRFToken:  csrfToken,
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		ExpiresAt:  expiresAt,
		CreatedAt:  now,
		LastSeenAt: now,
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsAuthenticated returns true if an identity is bound to the session.
func (s *Session) IsAuthenticated() bool {
	return s.IdentityID != nil
}

// GenerateSessionToken creates a secure random token and its hash.
// Returns (plaintext_token, sha256_hash, error). The plaintext token is
// sent to the client as the cookie value; only the hash is stored.
func GenerateSessionToken() (token, hash string, err error) {
	tokenBytes := make([]byte, SessionTokenBytes)
	if _, err = rand.Read(tokenBytes); err != nil {
		return "", "", oops.Code("SESSION_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}

	token = hex.EncodeToString(tokenBytes)
	hash = HashSessionToken(token)

	return token, hash, nil
}

// HashSessionToken computes the SHA256 hash of a session token.
func HashSessionToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}

// GenerateCSRFToken creates a secure random anti-forgery token.
func GenerateCSRFToken() (string, error) {
	buf := make([]byte, CSRFTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("SESSION_CSRF_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

// VerifyCSRFToken checks a submitted anti-forgery token against the one
// bound to the session. Constant-time; empty values never match.
func VerifyCSRFToken(submitted, expected string) bool {
	if submitted == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(expected)) == 1
}

// SessionRepository manages session persistence.
type SessionRepository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session by its token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// BindIdentity sets the identity binding for a session.
	BindIdentity(ctx context.Context, id, identityID ulid.ULID) error

	// ClearIdentity removes the identity binding. Clearing a session
	// that does not exist or is already anonymous is not an error.
	ClearIdentity(ctx context.Context, id ulid.ULID) error

	// UpdateLastSeen updates the LastSeenAt timestamp for a session.
	UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error

	// Delete removes a session by ID.
	Delete(ctx context.Context, id ulid.ULID) error

	// DeleteExpired removes all expired sessions and returns the count
	// of deleted records.
	DeleteExpired(ctx context.Context) (int64, error)
}
