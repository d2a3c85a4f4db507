// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package web serves the browser-facing authentication surface: the
// public pages, the login and registration forms, and the member area
// behind the session gate.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Config holds the web server's listen address and session cookie
// parameters.
type Config struct {
	Addr         string
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

// Server is the public HTTP server. All request state flows through
// the gate middleware before reaching route handlers.
type Server struct {
	cfg           Config
	authenticator *auth.Service
	registrations *auth.RegistrationService
	sessions      *auth.SessionService
	metrics       *observability.Metrics
	logger        *slog.Logger

	engine     *gin.Engine
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates the web server and builds its route table.
// metrics may be nil; all other dependencies are required.
func NewServer(
	cfg Config,
	authenticator *auth.Service,
	registrations *auth.RegistrationService,
	sessions *auth.SessionService,
	metrics *observability.Metrics,
	logger *slog.Logger,
) (*Server, error) {
	if authenticator == nil {
		return nil, oops.Errorf("authenticator is required")
	}
	if registrations == nil {
		return nil, oops.Errorf("registration service is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session service is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "gatehouse_session"
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = auth.DefaultSessionTTL
	}

	s := &Server{
		cfg:           cfg,
		authenticator: authenticator,
		registrations: registrations,
		sessions:      sessions,
		metrics:       metrics,
		logger:        logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.SetHTMLTemplate(template.Must(template.ParseFS(templatesFS, "templates/*.html")))

	engine.Use(s.requestMetrics())
	engine.Use(s.sessionGate())
	engine.Use(s.csrfGate())

	engine.GET("/", s.handleIndex)
	engine.GET("/member", s.requireIdentity(), s.handleMember)
	engine.GET("/login", s.handleLoginForm)
	engine.POST("/login", s.handleLogin)
	engine.GET("/register", s.handleRegisterForm)
	engine.POST("/register", s.handleRegister)
	engine.GET("/logout", s.requireIdentity(), s.handleLogout)

	s.engine = engine
	return s, nil
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start begins serving on the configured address.
// It returns an error channel that will receive any errors from the HTTP server
// after it starts. The channel is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the web server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_web_server").Wrap(err)
		}
	}

	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// requestMetrics counts finished requests by route and status.
func (s *Server) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if s.metrics == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func (s *Server) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) recordRegistration(outcome string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) recordCSRFRejection() {
	if s.metrics != nil {
		s.metrics.CSRFRejectionsTotal.Inc()
	}
}

func (s *Server) recordSessionBegun() {
	if s.metrics != nil {
		s.metrics.SessionsBegun.Inc()
	}
}
