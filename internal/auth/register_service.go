// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"
)

// User-facing registration error messages. Validation failures carry
// these verbatim; the web layer renders them directly.
const (
	MsgFillAllFields    = "Please fill all fields"
	MsgInvalidEmail     = "Invalid email address"
	MsgPasswordMismatch = "Password don't match"
	MsgUsernameTaken    = "Username is taken"
	MsgEmailTaken       = "Email address is already registered"
)

// Candidate is the transient registration input. It is validated before
// an Identity is created and never persisted on failure.
type Candidate struct {
	Username  string
	Email     string
	Password  string
	Password2 string
}

// RegistrationService validates registration candidates and creates
// identities. The cheap well-formedness checks run before the store
// round-trips, in a fixed order where the first violated rule wins.
type RegistrationService struct {
	identities IdentityRepository
	hasher     PasswordHasher
	logger     *slog.Logger
}

// NewRegistrationService creates a new RegistrationService with a no-op logger.
// Returns an error if any required dependency is nil.
func NewRegistrationService(identities IdentityRepository, hasher PasswordHasher) (*RegistrationService, error) {
	return NewRegistrationServiceWithLogger(identities, hasher, slog.New(slog.DiscardHandler))
}

// NewRegistrationServiceWithLogger creates a new RegistrationService with the
// provided logger. Returns an error if any required dependency is nil.
func NewRegistrationServiceWithLogger(identities IdentityRepository, hasher PasswordHasher, logger *slog.Logger) (*RegistrationService, error) {
	if identities == nil {
		return nil, oops.Errorf("identities repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &RegistrationService{
		identities: identities,
		hasher:     hasher,
		logger:     logger,
	}, nil
}

// Register validates the candidate and, on success, hashes the password
// and creates the Identity. Validation failures carry code
// AUTH_VALIDATION_FAILED (or AUTH_USERNAME_TAKEN / AUTH_EMAIL_TAKEN for
// uniqueness) with the user-facing message as the error text.
//
// Uniqueness is checked here for the friendly error message, but the
// store's unique indexes are authoritative: a concurrent registration
// of the same username loses at INSERT time with the same taken error,
// so exactly one of two racing candidates succeeds.
func (s *RegistrationService) Register(ctx context.Context, c Candidate) (*Identity, error) {
	if err := s.validate(ctx, c); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(c.Password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	identity, err := NewIdentity(c.Username, c.Email, hash)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "build identity").
			Wrap(err)
	}

	if err := s.identities.Create(ctx, identity); err != nil {
		// Duplicate codes from the store pass through unchanged so the
		// caller sees the same taken error as the pre-check path.
		if oopsErr, ok := oops.AsOops(err); ok {
			switch oopsErr.Code() {
			case "AUTH_USERNAME_TAKEN", "AUTH_EMAIL_TAKEN":
				return nil, err
			}
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create identity").
			With("username", c.Username).
			Wrap(err)
	}

	s.logger.Info("identity registered",
		"event", "identity_registered",
		"identity_id", identity.ID.String(),
		"username", identity.Username,
	)

	return identity, nil
}

// validate runs the ordered rule list. Rules 1-6 are pure input checks;
// rules 7-8 cost a store round-trip each, which is why they run last.
func (s *RegistrationService) validate(ctx context.Context, c Candidate) error {
	if len(c.Email) <= 5 {
		return validationError("email", MsgFillAllFields)
	}
	if len(c.Username) <= 1 {
		return validationError("username", MsgFillAllFields)
	}
	if len(c.Password) <= 3 {
		return validationError("password", MsgFillAllFields)
	}
	if len(c.Password2) <= 3 {
		return validationError("password2", MsgFillAllFields)
	}
	if !strings.Contains(c.Email, "@") || !strings.Contains(c.Email, ".") {
		return validationError("email", MsgInvalidEmail)
	}
	if c.Password != c.Password2 {
		return validationError("password2", MsgPasswordMismatch)
	}

	taken, err := s.identities.ExistsUsername(ctx, c.Username)
	if err != nil {
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check username in use").
			Wrap(err)
	}
	if taken {
		return oops.Code("AUTH_USERNAME_TAKEN").With("field", "username").Errorf("%s", MsgUsernameTaken)
	}

	registered, err := s.identities.ExistsEmail(ctx, c.Email)
	if err != nil {
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check email in use").
			Wrap(err)
	}
	if registered {
		return oops.Code("AUTH_EMAIL_TAKEN").With("field", "email").Errorf("%s", MsgEmailTaken)
	}

	return nil
}

func validationError(field, msg string) error {
	return oops.Code("AUTH_VALIDATION_FAILED").With("field", field).Errorf("%s", msg)
}
