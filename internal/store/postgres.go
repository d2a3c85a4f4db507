// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package store provides PostgreSQL connection and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry configuration. The database may still be coming up
// when the process starts; Ping is retried with fibonacci backoff
// before the pool is handed out.
const (
	pingRetryBase = 250 * time.Millisecond
	pingRetryMax  = 10 * time.Second
)

// NewPool creates a pgx connection pool and verifies connectivity.
// The returned pool is a process-lifetime resource shared across all
// request goroutines; callers own Close.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("STORE_UNAVAILABLE").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxDuration(pingRetryMax, retry.NewFibonacci(pingRetryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_UNAVAILABLE").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}
