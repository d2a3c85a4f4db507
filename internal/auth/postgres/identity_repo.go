// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// IdentityRepository implements auth.IdentityRepository using PostgreSQL.
type IdentityRepository struct {
	pool poolIface
}

// NewIdentityRepository creates a new IdentityRepository.
func NewIdentityRepository(pool poolIface) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// Create stores a new identity. The unique indexes on username and
// email are authoritative: a violation is mapped to the same taken
// errors as the registration pre-checks, closing the check-then-act
// race between concurrent registrations.
func (r *IdentityRepository) Create(ctx context.Context, identity *auth.Identity) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO identities (id, username, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		identity.ID.String(),
		identity.Username,
		identity.Email,
		identity.PasswordHash,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return oops.Code("AUTH_EMAIL_TAKEN").
					With("email", identity.Email).
					Wrap(auth.ErrDuplicate)
			}
			return oops.Code("AUTH_USERNAME_TAKEN").
				With("username", identity.Username).
				Wrap(auth.ErrDuplicate)
		}
		return oops.Code("IDENTITY_CREATE_FAILED").
			With("operation", "insert identity").
			With("username", identity.Username).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves an identity by ID.
func (r *IdentityRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM identities
		WHERE id = $1
	`, id.String())

	identity, err := r.scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_BY_ID_FAILED").
			With("operation", "get identity by id").
			With("id", id.String()).
			Wrap(err)
	}
	return identity, nil
}

// GetByUsername retrieves an identity by username (case-insensitive).
func (r *IdentityRepository) GetByUsername(ctx context.Context, username string) (*auth.Identity, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM identities
		WHERE LOWER(username) = LOWER($1)
	`, username)

	identity, err := r.scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("IDENTITY_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_GET_BY_USERNAME_FAILED").
			With("operation", "get identity by username").
			With("username", username).
			Wrap(err)
	}
	return identity, nil
}

// ExistsUsername reports whether the username is taken (case-insensitive).
func (r *IdentityRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM identities WHERE LOWER(username) = LOWER($1))
	`, username).Scan(&exists)
	if err != nil {
		return false, oops.Code("IDENTITY_EXISTS_USERNAME_FAILED").
			With("operation", "check username exists").
			With("username", username).
			Wrap(err)
	}
	return exists, nil
}

// ExistsEmail reports whether the email is registered (case-insensitive).
func (r *IdentityRepository) ExistsEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM identities WHERE LOWER(email) = LOWER($1))
	`, email).Scan(&exists)
	if err != nil {
		return false, oops.Code("IDENTITY_EXISTS_EMAIL_FAILED").
			With("operation", "check email exists").
			With("email", email).
			Wrap(err)
	}
	return exists, nil
}

// scanIdentity scans a single row into an Identity.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *IdentityRepository) scanIdentity(row pgx.Row) (*auth.Identity, error) {
	var (
		idStr        string
		username     string
		email        string
		passwordHash string
		createdAt    time.Time
		updatedAt    time.Time
	)

	err := row.Scan(&idStr, &username, &email, &passwordHash, &createdAt, &updatedAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("IDENTITY_SCAN_FAILED").
			With("operation", "scan identity").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("IDENTITY_INVALID_ID").
			With("operation", "parse identity id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Identity{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.IdentityRepository = (*IdentityRepository)(nil)
