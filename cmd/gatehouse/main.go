// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Command gatehouse runs the authentication gate: a web server that
// registers identities, verifies credentials, and tracks sessions.
package main

import (
	"fmt"
	"os"
)

// Build information. Populated at build-time via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
