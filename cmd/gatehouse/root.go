// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gatehouse",
		Short: "Gatehouse authentication gate",
		Long:  "Gatehouse is a credential and session gate for browser-facing services.",
	}

	rootCmd.PersistentFlags().String("config", "", "path to YAML config file")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gatehouse %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}
