// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package store

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrate struct {
	upErr      error
	downErr    error
	version    uint
	dirty      bool
	versionErr error
	srcErr     error
	dbErr      error
}

func (f *fakeMigrate) Up() error   { return f.upErr }
func (f *fakeMigrate) Down() error { return f.downErr }
func (f *fakeMigrate) Version() (uint, bool, error) {
	return f.version, f.dirty, f.versionErr
}
func (f *fakeMigrate) Close() (error, error) { return f.srcErr, f.dbErr }

func TestMigrator_Up(t *testing.T) {
	tests := []struct {
		name    string
		upErr   error
		wantErr bool
	}{
		{name: "applies pending migrations", upErr: nil, wantErr: false},
		{name: "no change is not an error", upErr: migrate.ErrNoChange, wantErr: false},
		{name: "propagates failure", upErr: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Migrator{m: &fakeMigrate{upErr: tt.upErr}}
			err := m.Up()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMigrator_Down(t *testing.T) {
	t.Run("no change is not an error", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{downErr: migrate.ErrNoChange}}
		require.NoError(t, m.Down())
	})

	t.Run("propagates failure", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{downErr: errors.New("boom")}}
		require.Error(t, m.Down())
	})
}

func TestMigrator_Version(t *testing.T) {
	t.Run("returns current version", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 2, dirty: false}}

		version, dirty, err := m.Version()

		require.NoError(t, err)
		assert.Equal(t, uint(2), version)
		assert.False(t, dirty)
	})

	t.Run("nil version means no migrations applied", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{versionErr: migrate.ErrNilVersion}}

		version, dirty, err := m.Version()

		require.NoError(t, err)
		assert.Equal(t, uint(0), version)
		assert.False(t, dirty)
	})

	t.Run("reports dirty state", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{version: 1, dirty: true}}

		_, dirty, err := m.Version()

		require.NoError(t, err)
		assert.True(t, dirty)
	})
}

func TestMigrator_Close(t *testing.T) {
	t.Run("clean close", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{}}
		require.NoError(t, m.Close())
	})

	t.Run("combines both errors", func(t *testing.T) {
		m := &Migrator{m: &fakeMigrate{srcErr: errors.New("src"), dbErr: errors.New("db")}}

		err := m.Close()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "src")
		assert.Contains(t, err.Error(), "db")
	})
}
