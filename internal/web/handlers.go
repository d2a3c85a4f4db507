// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"User": identityFrom(c),
	})
}

func (s *Server) handleMember(c *gin.Context) {
	c.HTML(http.StatusOK, "member.html", gin.H{
		"User": identityFrom(c),
	})
}

func (s *Server) handleLoginForm(c *gin.Context) {
	errMsg := ""
	if c.Query("required") != "" {
		errMsg = "Authentication required"
	}
	s.renderLogin(c, http.StatusOK, errMsg, "")
}

// handleLogin verifies credentials and binds the identity to the
// session. Unknown users and wrong passwords render the same message;
// the distinction lives only in logs and metrics.
func (s *Server) handleLogin(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	identity, err := s.authenticator.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		switch errutil.Code(err) {
		case "AUTH_USER_NOT_FOUND", "AUTH_INVALID_PASSWORD":
			s.recordLogin("rejected")
			s.renderLogin(c, http.StatusOK, err.Error(), username)
		default:
			s.recordLogin("error")
			errutil.LogError(s.logger, "login failed", err)
			s.renderError(c, http.StatusInternalServerError, "Please try again later.")
		}
		return
	}

	session := sessionFrom(c)
	if err := s.sessions.Login(c.Request.Context(), session.ID, identity.ID); err != nil {
		s.recordLogin("error")
		errutil.LogError(s.logger, "session login failed", err)
		s.renderError(c, http.StatusInternalServerError, "Please try again later.")
		return
	}

	s.recordLogin("success")
	c.Redirect(http.StatusFound, "/member")
}

func (s *Server) handleRegisterForm(c *gin.Context) {
	s.renderRegister(c, http.StatusOK, "", auth.Candidate{})
}

// handleRegister runs the ordered validation via the registration
// service and, on success, signs the new identity in before rendering
// the success view. Rejected submissions echo username and email back
// into the form; passwords are never echoed.
func (s *Server) handleRegister(c *gin.Context) {
	candidate := auth.Candidate{
		Username:  c.PostForm("username"),
		Email:     c.PostForm("email"),
		Password:  c.PostForm("password"),
		Password2: c.PostForm("password2"),
	}

	identity, err := s.registrations.Register(c.Request.Context(), candidate)
	if err != nil {
		switch errutil.Code(err) {
		case "AUTH_VALIDATION_FAILED", "AUTH_USERNAME_TAKEN", "AUTH_EMAIL_TAKEN":
			s.recordRegistration("rejected")
			s.renderRegister(c, http.StatusOK, err.Error(), candidate)
		default:
			s.recordRegistration("error")
			errutil.LogError(s.logger, "registration failed", err)
			s.renderError(c, http.StatusInternalServerError, "Please try again later.")
		}
		return
	}

	session := sessionFrom(c)
	if err := s.sessions.Login(c.Request.Context(), session.ID, identity.ID); err != nil {
		s.recordRegistration("error")
		errutil.LogError(s.logger, "post-registration login failed", err)
		s.renderError(c, http.StatusInternalServerError, "Please try again later.")
		return
	}

	s.recordRegistration("success")
	c.HTML(http.StatusOK, "register_success.html", gin.H{})
}

func (s *Server) handleLogout(c *gin.Context) {
	session := sessionFrom(c)
	if err := s.sessions.Logout(c.Request.Context(), session.ID); err != nil {
		errutil.LogError(s.logger, "logout failed", err)
		s.renderError(c, http.StatusInternalServerError, "Please try again later.")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (s *Server) renderLogin(c *gin.Context, status int, errMsg, username string) {
	c.HTML(status, "login.html", gin.H{
		"Error":     errMsg,
		"Username":  username,
		"CSRFToken": sessionFrom(c).CSRFToken,
	})
}

func (s *Server) renderRegister(c *gin.Context, status int, errMsg string, candidate auth.Candidate) {
	c.HTML(status, "register.html", gin.H{
		"Error":     errMsg,
		"Username":  candidate.Username,
		"Email":     candidate.Email,
		"CSRFToken": sessionFrom(c).CSRFToken,
	})
}
