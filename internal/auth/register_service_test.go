// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth_test

import (
	"context"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/auth/mocks"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func validCandidate() auth.Candidate {
	return auth.Candidate{
		Username:  "alice",
		Email:     "alice@example.com",
		Password:  "secret1",
		Password2: "secret1",
	}
}

func TestRegistrationService_ValidationOrder(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*auth.Candidate)
		wantMsg   string
		wantField string
	}{
		{
			name:      "email too short",
			mutate:    func(c *auth.Candidate) { c.Email = "a@b.c" },
			wantMsg:   auth.MsgFillAllFields,
			wantField: "email",
		},
		{
			name:      "username too short",
			mutate:    func(c *auth.Candidate) { c.Username = "a" },
			wantMsg:   auth.MsgFillAllFields,
			wantField: "username",
		},
		{
			name:      "password too short",
			mutate:    func(c *auth.Candidate) { c.Password = "abc" },
			wantMsg:   auth.MsgFillAllFields,
			wantField: "password",
		},
		{
			name:      "password2 too short",
			mutate:    func(c *auth.Candidate) { c.Password2 = "abc" },
			wantMsg:   auth.MsgFillAllFields,
			wantField: "password2",
		},
		{
			name:      "email missing at sign",
			mutate:    func(c *auth.Candidate) { c.Email = "alice.example.com" },
			wantMsg:   auth.MsgInvalidEmail,
			wantField: "email",
		},
		{
			name:      "email missing dot",
			mutate:    func(c *auth.Candidate) { c.Email = "alice@example" },
			wantMsg:   auth.MsgInvalidEmail,
			wantField: "email",
		},
		{
			name:      "password mismatch",
			mutate:    func(c *auth.Candidate) { c.Password2 = "secret2" },
			wantMsg:   auth.MsgPasswordMismatch,
			wantField: "password2",
		},
		{
			name: "short email wins over short username",
			mutate: func(c *auth.Candidate) {
				c.Email = "a@b"
				c.Username = "a"
			},
			wantMsg:   auth.MsgFillAllFields,
			wantField: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// No repository expectations: input rules fail before any
			// store round-trip.
			identities := mocks.NewMockIdentityRepository(t)
			hasher := mocks.NewMockPasswordHasher(t)
			svc, err := auth.NewRegistrationService(identities, hasher)
			require.NoError(t, err)

			candidate := validCandidate()
			tt.mutate(&candidate)

			_, err = svc.Register(context.Background(), candidate)

			errutil.AssertErrorCode(t, err, "AUTH_VALIDATION_FAILED")
			errutil.AssertErrorContext(t, err, "field", tt.wantField)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestRegistrationService_UsernameTaken(t *testing.T) {
	identities := mocks.NewMockIdentityRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)

	identities.On("ExistsUsername", context.Background(), "alice").Return(true, nil)

	svc, err := auth.NewRegistrationService(identities, hasher)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validCandidate())

	errutil.AssertErrorCode(t, err, "AUTH_USERNAME_TAKEN")
	assert.Equal(t, auth.MsgUsernameTaken, err.Error())
}

func TestRegistrationService_EmailTaken(t *testing.T) {
	identities := mocks.NewMockIdentityRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)

	identities.On("ExistsUsername", context.Background(), "alice").Return(false, nil)
	identities.On("ExistsEmail", context.Background(), "alice@example.com").Return(true, nil)

	svc, err := auth.NewRegistrationService(identities, hasher)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validCandidate())

	errutil.AssertErrorCode(t, err, "AUTH_EMAIL_TAKEN")
	assert.Equal(t, auth.MsgEmailTaken, err.Error())
}

func TestRegistrationService_Success(t *testing.T) {
	identities := mocks.NewMockIdentityRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)

	identities.On("ExistsUsername", context.Background(), "alice").Return(false, nil)
	identities.On("ExistsEmail", context.Background(), "alice@example.com").Return(false, nil)
	hasher.On("Hash", "secret1").Return("hashed-secret", nil)
	identities.On("Create", context.Background(), mock.AnythingOfType("*auth.Identity")).Return(nil)

	svc, err := auth.NewRegistrationService(identities, hasher)
	require.NoError(t, err)

	identity, err := svc.Register(context.Background(), validCandidate())

	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.Equal(t, "hashed-secret", identity.PasswordHash)
}

func TestRegistrationService_ConcurrentDuplicatePassesThrough(t *testing.T) {
	// The pre-check can race a concurrent registration; the store's
	// duplicate error must surface with the same code as the pre-check.
	identities := mocks.NewMockIdentityRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)

	identities.On("ExistsUsername", context.Background(), "alice").Return(false, nil)
	identities.On("ExistsEmail", context.Background(), "alice@example.com").Return(false, nil)
	hasher.On("Hash", "secret1").Return("hashed-secret", nil)
	identities.On("Create", context.Background(), mock.AnythingOfType("*auth.Identity")).
		Return(oops.Code("AUTH_USERNAME_TAKEN").Wrap(auth.ErrDuplicate))

	svc, err := auth.NewRegistrationService(identities, hasher)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validCandidate())

	errutil.AssertErrorCode(t, err, "AUTH_USERNAME_TAKEN")
}

func TestRegistrationService_StoreFailure(t *testing.T) {
	identities := mocks.NewMockIdentityRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)

	identities.On("ExistsUsername", context.Background(), "alice").Return(false, assert.AnError)

	svc, err := auth.NewRegistrationService(identities, hasher)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validCandidate())

	errutil.AssertErrorCode(t, err, "AUTH_REGISTER_FAILED")
}

func TestRegistrationService_HashFailure(t *testing.T) {
	identities := mocks.NewMockIdentityRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)

	identities.On("ExistsUsername", context.Background(), "alice").Return(false, nil)
	identities.On("ExistsEmail", context.Background(), "alice@example.com").Return(false, nil)
	hasher.On("Hash", "secret1").Return("", assert.AnError)

	svc, err := auth.NewRegistrationService(identities, hasher)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), validCandidate())

	errutil.AssertErrorCode(t, err, "AUTH_REGISTER_FAILED")
}
