// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a create would violate a uniqueness
// constraint (username or email already registered).
var ErrDuplicate = errors.New("duplicate")
