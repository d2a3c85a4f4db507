// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/config"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/store"
	"github.com/gatehouse/gatehouse/internal/web"
)

const (
	shutdownTimeout      = 5 * time.Second
	readinessPingTimeout = 2 * time.Second
	sessionSweepInterval = time.Hour
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the authentication gate",
		RunE:  runServe,
	}

	// Flag names mirror config file keys so both feed the same loader.
	fs := cmd.Flags()
	fs.String("http.addr", ":8080", "web listen address")
	fs.String("metrics.addr", ":9090", "metrics and health listen address")
	fs.String("log.level", "info", "log level (debug, info, warn, error)")
	fs.String("log.format", "text", "log format (text, json)")
	fs.Duration("session.ttl", 24*time.Hour, "session lifetime")
	fs.String("session.cookie_name", "gatehouse_session", "session cookie name")
	fs.Bool("session.cookie_secure", false, "mark the session cookie Secure")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return oops.Wrap(err)
	}

	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("gatehouse", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	logger := slog.Default()

	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("database.url is required (set DATABASE_URL)")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	identityRepo := postgres.NewIdentityRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)

	hasher := auth.NewArgon2idHasher()
	authenticator, err := auth.NewServiceWithLogger(identityRepo, hasher, logger)
	if err != nil {
		return err
	}
	registrations, err := auth.NewRegistrationServiceWithLogger(identityRepo, hasher, logger)
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessionServiceWithLogger(sessionRepo, identityRepo, cfg.Session.TTL, logger)
	if err != nil {
		return err
	}

	obsServer := observability.NewServer(cfg.Metrics.Addr, func() bool {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), readinessPingTimeout)
		defer pingCancel()
		return pool.Ping(pingCtx) == nil
	})

	obsErrCh, err := obsServer.Start()
	if err != nil {
		return oops.With("server", "observability").Wrap(err)
	}
	monitorServerErrors(ctx, cancel, obsErrCh, "observability")

	webServer, err := web.NewServer(web.Config{
		Addr:         cfg.HTTP.Addr,
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		SessionTTL:   cfg.Session.TTL,
	}, authenticator, registrations, sessions, obsServer.Metrics(), logger)
	if err != nil {
		stopServer(obsServer, "observability", logger)
		return err
	}

	webErrCh, err := webServer.Start()
	if err != nil {
		stopServer(obsServer, "observability", logger)
		return oops.With("server", "web").Wrap(err)
	}
	monitorServerErrors(ctx, cancel, webErrCh, "web")

	go sweepExpiredSessions(ctx, sessionRepo, logger)

	logger.Info("gatehouse started",
		"version", version,
		"web_addr", webServer.Addr(),
		"metrics_addr", obsServer.Addr(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down", "reason", "server error")
	}

	stopServer(webServer, "web", logger)
	stopServer(obsServer, "observability", logger)
	return nil
}

// stoppable is satisfied by both HTTP servers.
type stoppable interface {
	Stop(ctx context.Context) error
}

func stopServer(srv stoppable, name string, logger *slog.Logger) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "server", name, "error", err)
	}
}

// monitorServerErrors cancels the run context when a server's error
// channel reports a failure, taking the whole process down rather than
// limping along with one listener dead.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	go func() {
		select {
		case err, ok := <-errCh:
			if ok && err != nil {
				slog.Error("server failed", "server", name, "error", err)
				cancel()
			}
		case <-ctx.Done():
		}
	}()
}

// sweepExpiredSessions periodically deletes sessions past their expiry
// so stale rows do not accumulate.
func sweepExpiredSessions(ctx context.Context, sessions auth.SessionRepository, logger *slog.Logger) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.DeleteExpired(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}
