// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// SessionRepository implements auth.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool poolIface
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool poolIface) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create stores a new session.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	var identityIDStr *string
	if session.IdentityID != nil {
		s := session.IdentityID.String()
		identityIDStr = &s
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, identity_id, token_hash, csrf_token, user_agent, ip_address, expires_at, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		session.ID.String(),
		identityIDStr,
		session.TokenHash,
		session.CSRFToken,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.CreatedAt,
		session.LastSeenAt,
	)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "insert session").
			Wrap(err)
	}
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, identity_id, token_hash, csrf_token, user_agent, ip_address, expires_at, created_at, last_seen_at
		FROM sessions
		WHERE token_hash = $1
	`, tokenHash)

	session, err := r.scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("SESSION_GET_BY_TOKEN_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}
	return session, nil
}

// BindIdentity sets the identity binding for a session.
func (r *SessionRepository) BindIdentity(ctx context.Context, id, identityID ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE sessions SET identity_id = $2
		WHERE id = $1
	`, id.String(), identityID.String())
	if err != nil {
		return oops.Code("SESSION_BIND_FAILED").
			With("operation", "bind identity").
			With("id", id.String()).
			With("identity_id", identityID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// ClearIdentity removes the identity binding. Clearing a session that
// does not exist is not an error; logout must stay idempotent.
func (r *SessionRepository) ClearIdentity(ctx context.Context, id ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE sessions SET identity_id = NULL
		WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("SESSION_CLEAR_FAILED").
			With("operation", "clear identity").
			With("id", id.String()).
			Wrap(err)
	}
	return nil
}

// UpdateLastSeen updates the LastSeenAt timestamp for a session.
func (r *SessionRepository) UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE sessions SET last_seen_at = $2
		WHERE id = $1
	`, id.String(), lastSeen)
	if err != nil {
		return oops.Code("SESSION_UPDATE_LAST_SEEN_FAILED").
			With("operation", "update last_seen_at").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// Delete removes a session by ID.
func (r *SessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM sessions WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM sessions WHERE expires_at < $1
	`, time.Now())
	if err != nil {
		return 0, oops.Code("SESSION_DELETE_EXPIRED_FAILED").
			With("operation", "delete expired sessions").
			Wrap(err)
	}
	return result.RowsAffected(), nil
}

// scanSession scans a single row into a Session.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *SessionRepository) scanSession(row pgx.Row) (*auth.Session, error) {
	var (
		idStr         string
		identityIDStr *string
		tokenHash     string
		csrfToken     string
		userAgent     string
		ipAddress     string
		expiresAt     time.Time
		createdAt     time.Time
		lastSeenAt    time.Time
	)

	err := row.Scan(&idStr, &identityIDStr, &tokenHash, &csrfToken, &userAgent, &ipAddress, &expiresAt, &createdAt, &lastSeenAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("SESSION_SCAN_FAILED").
			With("operation", "scan session").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SESSION_INVALID_ID").
			With("operation", "parse session id").
			With("id", idStr).
			Wrap(err)
	}

	var identityID *ulid.ULID
	if identityIDStr != nil {
		parsed, err := ulid.Parse(*identityIDStr)
		if err != nil {
			return nil, oops.Code("SESSION_INVALID_IDENTITY_ID").
				With("operation", "parse identity id").
				With("identity_id", *identityIDStr).
				Wrap(err)
		}
		identityID = &parsed
	}

	return &auth.Session{
		ID:         id,
		IdentityID: identityID,
		TokenHash:  tokenHash,
		CSRFToken:  csrfToken,
		UserAgent:  userAgent,
		IPAddress:  ipAddress,
		ExpiresAt:  expiresAt,
		CreatedAt:  createdAt,
		LastSeenAt: lastSeenAt,
	}, nil
}

// Compile-time interface check.
var _ auth.SessionRepository = (*SessionRepository)(nil)
