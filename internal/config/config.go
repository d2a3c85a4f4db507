// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package config loads service configuration from defaults, an
// optional YAML file, command-line flags, and the environment, in
// that order of increasing precedence.
package config

import (
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds all runtime settings for the service.
type Config struct {
	HTTP     HTTPConfig     `koanf:"http"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Session  SessionConfig  `koanf:"session"`
}

// HTTPConfig configures the public web listener.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// MetricsConfig configures the operational endpoint serving metrics
// and health checks.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// SessionConfig configures session lifetime and the cookie that
// carries the session token.
type SessionConfig struct {
	TTL          time.Duration `koanf:"ttl"`
	CookieName   string        `koanf:"cookie_name"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"http.addr":             ":8080",
		"metrics.addr":          ":9090",
		"database.url":          "",
		"log.level":             "info",
		"log.format":            "text",
		"session.ttl":           24 * time.Hour,
		"session.cookie_name":   "gatehouse_session",
		"session.cookie_secure": false,
	}
}

// Load builds a Config from defaults, then the YAML file at path (if
// non-empty), then the given flag set (if non-nil), then the
// DATABASE_URL environment variable. Later sources win.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "defaults").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "file").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "unmarshal").Wrap(err)
	}

	// The connection string carries credentials, so it is taken from
	// the environment rather than files or flags when present.
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}

	if cfg.Session.TTL <= 0 {
		return nil, oops.Code("CONFIG_INVALID").
			With("field", "session.ttl").
			Errorf("session ttl must be positive, got %s", cfg.Session.TTL)
	}

	return &cfg, nil
}
