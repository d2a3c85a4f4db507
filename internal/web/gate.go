// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// csrfRejectedMessage is rendered verbatim on any CSRF failure.
const csrfRejectedMessage = "Invalid form submission!"

// csrfFormField is the hidden form field carrying the session's CSRF token.
const csrfFormField = "_csrf"

// sessionGate resolves the session named by the request cookie, or
// begins a fresh anonymous one when the cookie is absent, unknown, or
// expired. The session and its bound identity (nil when anonymous) are
// placed on the request context for everything downstream.
func (s *Server) sessionGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := s.resolveOrBegin(c)
		if err != nil {
			errutil.LogError(s.logger, "session gate failed", err)
			s.renderError(c, http.StatusInternalServerError, "Please try again later.")
			c.Abort()
			return
		}

		identity, err := s.sessions.CurrentIdentity(c.Request.Context(), session)
		if err != nil {
			errutil.LogError(s.logger, "identity resolution failed", err)
			s.renderError(c, http.StatusInternalServerError, "Please try again later.")
			c.Abort()
			return
		}

		c.Set(ctxSessionKey, session)
		if identity != nil {
			c.Set(ctxIdentityKey, identity)
		}

		c.Next()
	}
}

// resolveOrBegin maps stale-session conditions to a fresh session and
// lets store failures propagate. A new session always sets the cookie.
func (s *Server) resolveOrBegin(c *gin.Context) (*auth.Session, error) {
	token, _ := c.Cookie(s.cfg.CookieName) //nolint:errcheck // missing cookie yields empty token

	if token != "" {
		session, err := s.sessions.Resolve(c.Request.Context(), token)
		if err == nil {
			return session, nil
		}
		switch errutil.Code(err) {
		case "SESSION_INVALID", "SESSION_EXPIRED", "SESSION_TOKEN_EMPTY":
			// fall through to a fresh session
		default:
			return nil, err
		}
	}

	session, plaintext, err := s.sessions.Begin(c.Request.Context(), c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		return nil, err
	}
	s.recordSessionBegun()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cfg.CookieName, plaintext, int(s.cfg.SessionTTL.Seconds()), "/", "", s.cfg.CookieSecure, true)

	return session, nil
}

// csrfGate verifies the form token against the session's CSRF token on
// every mutating request. Rejections never reach route logic.
func (s *Server) csrfGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		session := sessionFrom(c)
		if session == nil || !auth.VerifyCSRFToken(c.PostForm(csrfFormField), session.CSRFToken) {
			s.recordCSRFRejection()
			s.logger.Warn("request rejected by csrf gate",
				"event", "csrf_rejected",
				"path", c.Request.URL.Path,
			)
			s.renderError(c, http.StatusForbidden, csrfRejectedMessage)
			c.Abort()
			return
		}

		c.Next()
	}
}

// requireIdentity redirects anonymous requests to the login form.
func (s *Server) requireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if identityFrom(c) == nil {
			c.Redirect(http.StatusFound, "/login?required=1")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) renderError(c *gin.Context, status int, message string) {
	c.HTML(status, "error.html", gin.H{"Message": message})
}
