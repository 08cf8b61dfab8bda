// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/riftgate/riftgate/internal/store"
)

// newMigrateCmd creates the migrate subcommand with up/down/version.
func newMigrateCmd() *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the account store schema",
		Long:  `Apply, roll back, or inspect account store schema migrations.`,
	}

	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "account store connection URL")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(databaseURL, func(m *store.Migrator) error {
				if err := m.Up(); err != nil {
					return err
				}
				cmd.Println("migrations applied")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(databaseURL, func(m *store.Migrator) error {
				if err := m.Down(); err != nil {
					return err
				}
				cmd.Println("migrations rolled back")
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(databaseURL, func(m *store.Migrator) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				cmd.Printf("version: %d dirty: %t\n", version, dirty)
				return nil
			})
		},
	})

	return cmd
}

// withMigrator runs fn with a migrator, closing it afterwards.
func withMigrator(databaseURL string, fn func(*store.Migrator) error) error {
	if databaseURL == "" {
		return fmt.Errorf("--database-url is required")
	}

	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()

	return fn(m)
}
