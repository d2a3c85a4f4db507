// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/store"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())

	return cmd
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				cmd.Println("Applying migrations...")
				if err := m.Up(); err != nil {
					return err
				}
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("Schema at version %d (dirty: %v)\n", version, dirty)
				return nil
			})
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops all data)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirmed {
				return oops.Code("CONFIG_INVALID").
					Errorf("migrate down drops all tables; re-run with --yes to confirm")
			}
			return withMigrator(func(m *store.Migrator) error {
				cmd.Println("Rolling back all migrations...")
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("Schema rolled back to version 0")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm the destructive rollback")
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(func(m *store.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				if version == 0 {
					cmd.Println("No migrations applied")
					return nil
				}
				cmd.Printf("Schema at version %d (dirty: %v)\n", version, dirty)
				if dirty {
					cmd.Println("A migration failed partway; manual intervention required")
				}
				return nil
			})
		},
	}
}

// withMigrator connects using DATABASE_URL, runs fn, and always closes
// the migrator.
func withMigrator(fn func(*store.Migrator) error) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("DATABASE_URL environment variable is required")
	}

	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = m.Close() //nolint:errcheck // close error after a completed run is not actionable
	}()

	return fn(m)
}
