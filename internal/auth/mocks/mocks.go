// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package mocks provides testify mocks for the auth package interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/mock"

	"github.com/gatehouse/gatehouse/internal/auth"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

// MockIdentityRepository is a mock implementation of auth.IdentityRepository.
type MockIdentityRepository struct {
	mock.Mock
}

// NewMockIdentityRepository creates a new mock with expectations asserted on cleanup.
func NewMockIdentityRepository(t testingT) *MockIdentityRepository {
	m := &MockIdentityRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIdentityRepository) Create(ctx context.Context, identity *auth.Identity) error {
	ret := m.Called(ctx, identity)
	return ret.Error(0)
}

func (m *MockIdentityRepository) GetByID(ctx context.Context, id ulid.ULID) (*auth.Identity, error) {
	ret := m.Called(ctx, id)
	var identity *auth.Identity
	if ret.Get(0) != nil {
		identity = ret.Get(0).(*auth.Identity)
	}
	return identity, ret.Error(1)
}

func (m *MockIdentityRepository) GetByUsername(ctx context.Context, username string) (*auth.Identity, error) {
	ret := m.Called(ctx, username)
	var identity *auth.Identity
	if ret.Get(0) != nil {
		identity = ret.Get(0).(*auth.Identity)
	}
	return identity, ret.Error(1)
}

func (m *MockIdentityRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	ret := m.Called(ctx, username)
	return ret.Bool(0), ret.Error(1)
}

func (m *MockIdentityRepository) ExistsEmail(ctx context.Context, email string) (bool, error) {
	ret := m.Called(ctx, email)
	return ret.Bool(0), ret.Error(1)
}

var _ auth.IdentityRepository = (*MockIdentityRepository)(nil)

// MockSessionRepository is a mock implementation of auth.SessionRepository.
type MockSessionRepository struct {
	mock.Mock
}

// NewMockSessionRepository creates a new mock with expectations asserted on cleanup.
func NewMockSessionRepository(t testingT) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionRepository) Create(ctx context.Context, session *auth.Session) error {
	ret := m.Called(ctx, session)
	return ret.Error(0)
}

func (m *MockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*auth.Session, error) {
	ret := m.Called(ctx, tokenHash)
	var session *auth.Session
	if ret.Get(0) != nil {
		session = ret.Get(0).(*auth.Session)
	}
	return session, ret.Error(1)
}

func (m *MockSessionRepository) BindIdentity(ctx context.Context, id, identityID ulid.ULID) error {
	ret := m.Called(ctx, id, identityID)
	return ret.Error(0)
}

func (m *MockSessionRepository) ClearIdentity(ctx context.Context, id ulid.ULID) error {
	ret := m.Called(ctx, id)
	return ret.Error(0)
}

func (m *MockSessionRepository) UpdateLastSeen(ctx context.Context, id ulid.ULID, lastSeen time.Time) error {
	ret := m.Called(ctx, id, lastSeen)
	return ret.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id ulid.ULID) error {
	ret := m.Called(ctx, id)
	return ret.Error(0)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ret := m.Called(ctx)
	return ret.Get(0).(int64), ret.Error(1)
}

var _ auth.SessionRepository = (*MockSessionRepository)(nil)

// MockPasswordHasher is a mock implementation of auth.PasswordHasher.
type MockPasswordHasher struct {
	mock.Mock
}

// NewMockPasswordHasher creates a new mock with expectations asserted on cleanup.
func NewMockPasswordHasher(t testingT) *MockPasswordHasher {
	m := &MockPasswordHasher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockPasswordHasher) Hash(password string) (string, error) {
	ret := m.Called(password)
	return ret.String(0), ret.Error(1)
}

func (m *MockPasswordHasher) Verify(password, hash string) (bool, error) {
	ret := m.Called(password, hash)
	return ret.Bool(0), ret.Error(1)
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)
