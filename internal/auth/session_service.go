// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// SessionService issues, resolves, and retires session tokens. Only the
// identity's ULID is stored in the session record; the full Identity is
// re-fetched from the store on each resolution so attribute changes are
// never served stale.
type SessionService struct {
	sessions   SessionRepository
	identities IdentityRepository
	ttl        time.Duration
	logger     *slog.Logger
}

// NewSessionService creates a new SessionService with a no-op logger.
// A non-positive ttl falls back to DefaultSessionTTL.
// Returns an error if any required dependency is nil.
func NewSessionService(sessions SessionRepository, identities IdentityRepository, ttl time.Duration) (*SessionService, error) {
	return NewSessionServiceWithLogger(sessions, identities, ttl, slog.New(slog.DiscardHandler))
}

// NewSessionServiceWithLogger creates a new SessionService with the provided
// logger. Returns an error if any required dependency is nil.
func NewSessionServiceWithLogger(sessions SessionRepository, identities IdentityRepository, ttl time.Duration, logger *slog.Logger) (*SessionService, error) {
	if sessions == nil {
		return nil, oops.Errorf("sessions repository is required")
	}
	if identities == nil {
		return nil, oops.Errorf("identities repository is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionService{
		sessions:   sessions,
		identities: identities,
		ttl:        ttl,
		logger:     logger,
	}, nil
}

// Begin creates and persists a fresh anonymous session with its CSRF
// token. Returns the session and the plaintext token for the cookie.
func (s *SessionService) Begin(ctx context.Context, userAgent, ipAddress string) (*Session, string, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("SESSION_BEGIN_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	csrfToken, err := GenerateCSRFToken()
	if err != nil {
		return nil, "", oops.Code("SESSION_BEGIN_FAILED").
			With("operation", "generate csrf token").
			Wrap(err)
	}

	session, err := NewSession(tokenHash, csrfToken, userAgent, ipAddress, time.Now().Add(s.ttl))
	if err != nil {
		return nil, "", oops.Code("SESSION_BEGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return session, token, nil
}

// Resolve looks up the session for a plaintext token. Unknown tokens
// yield SESSION_INVALID; expired sessions yield SESSION_EXPIRED. The
// LastSeenAt timestamp is updated best-effort.
func (s *SessionService) Resolve(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, oops.Code("SESSION_TOKEN_EMPTY").Errorf("session token cannot be empty")
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("SESSION_INVALID").Errorf("invalid session token")
		}
		return nil, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if session.IsExpired() {
		return nil, oops.Code("SESSION_EXPIRED").Errorf("session has expired")
	}

	_ = s.sessions.UpdateLastSeen(ctx, session.ID, time.Now()) //nolint:errcheck // Best effort, resolution succeeds regardless

	return session, nil
}

// Login binds an identity to the session. A failure here is fatal to
// the request: the caller must surface it as a server error rather than
// continue as authenticated.
func (s *SessionService) Login(ctx context.Context, sessionID, identityID ulid.ULID) error {
	if err := s.sessions.BindIdentity(ctx, sessionID, identityID); err != nil {
		return oops.Code("SESSION_LOGIN_FAILED").
			With("operation", "bind identity").
			With("session_id", sessionID.String()).
			With("identity_id", identityID.String()).
			Wrap(err)
	}

	s.logger.Info("session authenticated",
		"event", "session_login",
		"session_id", sessionID.String(),
		"identity_id", identityID.String(),
	)
	return nil
}

// CurrentIdentity returns the Identity bound to the session, or nil for
// anonymous sessions. A binding that points at a deleted identity is
// treated as anonymous rather than an error.
func (s *SessionService) CurrentIdentity(ctx context.Context, session *Session) (*Identity, error) {
	if session == nil || session.IdentityID == nil {
		return nil, nil
	}

	identity, err := s.identities.GetByID(ctx, *session.IdentityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.Warn("session bound to missing identity",
				"event", "dangling_session_binding",
				"session_id", session.ID.String(),
				"identity_id", session.IdentityID.String(),
			)
			return nil, nil
		}
		return nil, oops.Code("SESSION_RESOLVE_FAILED").
			With("operation", "get identity by id").
			With("identity_id", session.IdentityID.String()).
			Wrap(err)
	}

	return identity, nil
}

// Logout clears the identity binding. Idempotent: logging out an
// already-anonymous or missing session is a no-op, not an error.
func (s *SessionService) Logout(ctx context.Context, sessionID ulid.ULID) error {
	if err := s.sessions.ClearIdentity(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("SESSION_LOGOUT_FAILED").
			With("operation", "clear identity").
			With("session_id", sessionID.String()).
			Wrap(err)
	}
	return nil
}
