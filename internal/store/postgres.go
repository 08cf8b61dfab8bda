// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

// Package store provides account store connectivity and schema management.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connection retry configuration. The gateway often starts alongside the
// database; a short backoff loop rides out the race.
const (
	pingRetries = 5
	pingBackoff = 500 * time.Millisecond
)

// NewPool opens a pgx connection pool and verifies connectivity with an
// exponential backoff ping.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "create pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(pingRetries, retry.NewExponential(pingBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("STORE_CONNECT_FAILED").
			With("operation", "ping").
			Wrap(err)
	}

	return pool, nil
}
