// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func newIdentity(t *testing.T) *auth.Identity {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &auth.Identity{
		ID:           ulid.Make(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "stored-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIdentityRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, identity *auth.Identity)
		wantCode  string
		wantDup   bool
	}{
		{
			name: "inserts identity",
			setupMock: func(mock pgxmock.PgxPoolIface, identity *auth.Identity) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(identity.ID.String(), identity.Username, identity.Email,
						identity.PasswordHash, identity.CreatedAt, identity.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "username unique violation",
			setupMock: func(mock pgxmock.PgxPoolIface, identity *auth.Identity) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(identity.ID.String(), identity.Username, identity.Email,
						identity.PasswordHash, identity.CreatedAt, identity.UpdatedAt).
					WillReturnError(&pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: "identities_username_lower_idx",
					})
			},
			wantCode: "AUTH_USERNAME_TAKEN",
			wantDup:  true,
		},
		{
			name: "email unique violation",
			setupMock: func(mock pgxmock.PgxPoolIface, identity *auth.Identity) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(identity.ID.String(), identity.Username, identity.Email,
						identity.PasswordHash, identity.CreatedAt, identity.UpdatedAt).
					WillReturnError(&pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: "identities_email_lower_idx",
					})
			},
			wantCode: "AUTH_EMAIL_TAKEN",
			wantDup:  true,
		},
		{
			name: "other database error",
			setupMock: func(mock pgxmock.PgxPoolIface, identity *auth.Identity) {
				mock.ExpectExec(`INSERT INTO identities`).
					WithArgs(identity.ID.String(), identity.Username, identity.Email,
						identity.PasswordHash, identity.CreatedAt, identity.UpdatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantCode: "IDENTITY_CREATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			identity := newIdentity(t)
			tt.setupMock(mock, identity)

			repo := NewIdentityRepository(mock)
			err = repo.Create(context.Background(), identity)

			if tt.wantCode == "" {
				require.NoError(t, err)
			} else {
				errutil.AssertErrorCode(t, err, tt.wantCode)
				assert.Equal(t, tt.wantDup, errors.Is(err, auth.ErrDuplicate))
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIdentityRepository_GetByUsername(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		identity := newIdentity(t)
		rows := pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
			AddRow(identity.ID.String(), identity.Username, identity.Email,
				identity.PasswordHash, identity.CreatedAt, identity.UpdatedAt)
		mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at, updated_at`).
			WithArgs("ALICE").
			WillReturnRows(rows)

		repo := NewIdentityRepository(mock)
		got, err := repo.GetByUsername(context.Background(), "ALICE")

		require.NoError(t, err)
		assert.Equal(t, identity.ID, got.ID)
		assert.Equal(t, "alice", got.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found wraps ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at, updated_at`).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		repo := NewIdentityRepository(mock)
		_, err = repo.GetByUsername(context.Background(), "ghost")

		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "IDENTITY_NOT_FOUND")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed stored id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "username", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("not-a-ulid", "alice", "alice@example.com", "hash", time.Now(), time.Now())
		mock.ExpectQuery(`SELECT id, username, email, password_hash, created_at, updated_at`).
			WithArgs("alice").
			WillReturnRows(rows)

		repo := NewIdentityRepository(mock)
		_, err = repo.GetByUsername(context.Background(), "alice")

		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIdentityRepository_GetByID(t *testing.T) {
	t.Run("not found wraps ErrNotFound", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id := ulid.Make()
		mock.ExpectQuery(`FROM identities`).
			WithArgs(id.String()).
			WillReturnError(pgx.ErrNoRows)

		repo := NewIdentityRepository(mock)
		_, err = repo.GetByID(context.Background(), id)

		assert.ErrorIs(t, err, auth.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIdentityRepository_Exists(t *testing.T) {
	t.Run("username exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		repo := NewIdentityRepository(mock)
		exists, err := repo.ExistsUsername(context.Background(), "alice")

		require.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("email does not exist", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("new@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		repo := NewIdentityRepository(mock)
		exists, err := repo.ExistsEmail(context.Background(), "new@example.com")

		require.NoError(t, err)
		assert.False(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("alice").
			WillReturnError(errors.New("connection refused"))

		repo := NewIdentityRepository(mock)
		_, err = repo.ExistsUsername(context.Background(), "alice")

		errutil.AssertErrorCode(t, err, "IDENTITY_EXISTS_USERNAME_FAILED")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
