// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"github.com/gin-gonic/gin"

	"github.com/gatehouse/gatehouse/internal/auth"
)

// Request-scoped keys set by the gate middleware.
const (
	ctxSessionKey  = "gatehouse.session"
	ctxIdentityKey = "gatehouse.identity"
)

// sessionFrom returns the session established by the gate middleware.
// Nil only if the gate did not run, which means a wiring bug.
func sessionFrom(c *gin.Context) *auth.Session {
	v, ok := c.Get(ctxSessionKey)
	if !ok {
		return nil
	}
	session, ok := v.(*auth.Session)
	if !ok {
		return nil
	}
	return session
}

// identityFrom returns the identity bound to the request's session,
// or nil for anonymous requests.
func identityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return nil
	}
	identity, ok := v.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}
