// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth implements the authentication core: identity records,
// password hashing and verification, store-backed sessions with
// anti-forgery tokens, credential authentication, and registration
// validation. Persistence lives behind the repository interfaces
// defined here; PostgreSQL implementations are in the postgres
// subpackage.
package auth
