// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// CredentialVerifier answers whether a username/password pair is valid,
// and for which identity. Service is the local username/password
// implementation; future strategies (federated, token-based) are
// additional implementations, not global registration state.
type CredentialVerifier interface {
	Authenticate(ctx context.Context, username, password string) (*Identity, error)
}

// dummyPasswordHash is used when a user doesn't exist to prevent timing attacks.
// We still run password verification to make response time consistent.
// This is NOT a real credential - it's a fake hash that will never match any password.
//
//nolint:gosec // G101: This is an intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service implements CredentialVerifier against the identity store.
type Service struct {
	identities IdentityRepository
	hasher     PasswordHasher
	logger     *slog.Logger
}

// NewService creates a new Service with a no-op logger.
// Returns an error if any required dependency is nil.
func NewService(identities IdentityRepository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(identities, hasher, slog.New(slog.DiscardHandler))
}

// NewServiceWithLogger creates a new Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewServiceWithLogger(identities IdentityRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if identities == nil {
		return nil, oops.Errorf("identities repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{
		identities: identities,
		hasher:     hasher,
		logger:     logger,
	}, nil
}

// Authenticate verifies a username/password pair and returns the
// matching Identity. Failures carry distinct codes internally
// (AUTH_USER_NOT_FOUND vs AUTH_INVALID_PASSWORD) so operators can tell
// them apart in logs, but callers presenting errors to users must
// collapse both to one generic message to avoid username enumeration.
// Uses constant-time operations to keep response time uniform.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	identity, lookupErr := s.identities.GetByUsername(ctx, username)

	// Determine which hash to verify against (real or dummy for timing attack prevention)
	targetHash := dummyPasswordHash
	exists := false

	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOOKUP_FAILED").
				With("operation", "get identity by username").
				Wrap(lookupErr)
		}
	} else {
		targetHash = identity.PasswordHash
		exists = true
	}

	// Always verify, even against the dummy hash, to maintain constant time.
	valid, verifyErr := s.hasher.Verify(password, targetHash)
	if verifyErr != nil && exists {
		// Malformed stored hash. Treated as a mismatch; detail goes to logs only.
		s.logger.Warn("stored password hash failed verification",
			"event", "malformed_hash",
			"identity_id", identity.ID.String(),
		)
	}

	if !exists {
		s.logger.Info("authentication failed",
			"event", "auth_failed",
			"reason", "user_not_found",
		)
		return nil, oops.Code("AUTH_USER_NOT_FOUND").Errorf("invalid username or password")
	}

	if !valid {
		s.logger.Info("authentication failed",
			"event", "auth_failed",
			"reason", "invalid_password",
			"identity_id", identity.ID.String(),
		)
		return nil, oops.Code("AUTH_INVALID_PASSWORD").Errorf("invalid username or password")
	}

	return identity, nil
}

// Compile-time interface check.
var _ CredentialVerifier = (*Service)(nil)
