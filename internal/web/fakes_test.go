// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// In-memory repositories backing full request-cycle tests. They honor
// the same contracts as the postgres implementations: case-insensitive
// lookups, duplicate errors on conflicting creates, idempotent
// identity clearing.

type memIdentityRepo struct {
	mu   sync.Mutex
	byID map[ulid.ULID]*auth.Identity
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{byID: make(map[ulid.ULID]*auth.Identity)}
}

func (r *memIdentityRepo) Create(_ context.Context, identity *auth.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if strings.EqualFold(existing.Username, identity.Username) {
			return oops.Code("AUTH_USERNAME_TAKEN").Wrap(auth.ErrDuplicate)
		}
		if strings.EqualFold(existing.Email, identity.Email) {
			return oops.Code("AUTH_EMAIL_TAKEN").Wrap(auth.ErrDuplicate)
		}
	}
	copied := *identity
	r.byID[identity.ID] = &copied
	return nil
}

func (r *memIdentityRepo) GetByID(_ context.Context, id ulid.ULID) (*auth.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	copied := *identity
	return &copied, nil
}

func (r *memIdentityRepo) GetByUsername(_ context.Context, username string) (*auth.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.byID {
		if strings.EqualFold(identity.Username, username) {
			copied := *identity
			return &copied, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memIdentityRepo) ExistsUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.byID {
		if strings.EqualFold(identity.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memIdentityRepo) ExistsEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.byID {
		if strings.EqualFold(identity.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

type memSessionRepo struct {
	mu   sync.Mutex
	byID map[ulid.ULID]*auth.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byID: make(map[ulid.ULID]*auth.Session)}
}

func (r *memSessionRepo) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	r.byID[session.ID] = &copied
	return nil
}

func (r *memSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.byID {
		if session.TokenHash == tokenHash {
			copied := *session
			return &copied, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (r *memSessionRepo) BindIdentity(_ context.Context, id, identityID ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	bound := identityID
	session.IdentityID = &bound
	return nil
}

func (r *memSessionRepo) ClearIdentity(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.byID[id]; ok {
		session.IdentityID = nil
	}
	return nil
}

func (r *memSessionRepo) UpdateLastSeen(_ context.Context, id ulid.ULID, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.byID[id]; ok {
		session.LastSeenAt = lastSeen
	}
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

func (r *memSessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, session := range r.byID {
		if session.IsExpired() {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

// expire force-expires every stored session.
func (r *memSessionRepo) expire() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.byID {
		session.ExpiresAt = time.Now().Add(-time.Minute)
	}
}

// fakeHasher avoids argon2 cost in request-cycle tests.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", auth.ErrEmptyPassword
	}
	return "fake:" + password, nil
}

func (fakeHasher) Verify(password, hash string) (bool, error) {
	return hash == "fake:"+password, nil
}
