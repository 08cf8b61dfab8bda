// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package store

import (
	"embed"
	"errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateIface abstracts golang-migrate so Migrator logic can be unit
// tested without a database connection.
type migrateIface interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

// Migrator wraps golang-migrate for account store schema management.
type Migrator struct {
	m migrateIface
}

// NewMigrator creates a Migrator for the given database URL. postgres:// and
// postgresql:// schemes are converted to pgx5:// for golang-migrate's pgx
// driver.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").
			With("operation", "create migration source").
			Wrap(err)
	}

	url := normalizeURL(databaseURL)
	m, err := migrate.NewWithSourceInstance("iofs", source, url)
	if err != nil {
		return nil, oops.Code("MIGRATION_INIT_FAILED").
			With("operation", "create migrator").
			Wrap(err)
	}

	return &Migrator{m: m}, nil
}

// normalizeURL converts postgres URL schemes to the pgx5 scheme.
func normalizeURL(url string) string {
	if after, ok := strings.CutPrefix(url, "postgres://"); ok {
		return "pgx5://" + after
	}
	if after, ok := strings.CutPrefix(url, "postgresql://"); ok {
		return "pgx5://" + after
	}
	return url
}

// Up applies all pending migrations. Running against an up-to-date schema
// is not an error.
func (m *Migrator) Up() error {
	if err := m.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// Down rolls back all migrations.
func (m *Migrator) Down() error {
	if err := m.m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
	}
	return nil
}

// Version returns the current schema version and dirty flag. A pristine
// database reports version 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Close releases the migrator's source and database handles.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.m.Close()
	if sourceErr != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").
			With("handle", "source").
			Wrap(sourceErr)
	}
	if dbErr != nil {
		return oops.Code("MIGRATION_CLOSE_FAILED").
			With("handle", "database").
			Wrap(dbErr)
	}
	return nil
}
