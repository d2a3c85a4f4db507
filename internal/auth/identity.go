// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Identity represents a registered user account. The password hash is
// the only credential material ever held; plaintext passwords exist
// only transiently inside Authenticate and Register calls.
type Identity struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewIdentity creates a validated Identity with a fresh ULID.
func NewIdentity(username, email, passwordHash string) (*Identity, error) {
	if username == "" {
		return nil, oops.Code("AUTH_INVALID_IDENTITY").Errorf("username cannot be empty")
	}
	if email == "" {
		return nil, oops.Code("AUTH_INVALID_IDENTITY").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_IDENTITY").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Identity{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IdentityRepository manages identity persistence. Username and email
// uniqueness is enforced by the store itself (unique indexes), so a
// Create racing a concurrent Create of the same username fails with a
// duplicate error rather than producing two records.
type IdentityRepository interface {
	// Create stores a new identity. Returns an error wrapping
	// ErrDuplicate (code AUTH_USERNAME_TAKEN or AUTH_EMAIL_TAKEN) when
	// the username or email is already registered.
	Create(ctx context.Context, identity *Identity) error

	// GetByID retrieves an identity by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Identity, error)

	// GetByUsername retrieves an identity by username (case-insensitive).
	GetByUsername(ctx context.Context, username string) (*Identity, error)

	// ExistsUsername reports whether the username is taken (case-insensitive).
	ExistsUsername(ctx context.Context, username string) (bool, error)

	// ExistsEmail reports whether the email is registered (case-insensitive).
	ExistsEmail(ctx context.Context, email string) (bool, error)
}
