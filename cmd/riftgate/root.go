// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the Riftgate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "riftgate",
		Short: "Riftgate - login gateway for the Riftgate game platform",
		Long: `Riftgate terminates TLS for game clients, verifies account
credentials against the account store, and issues single-use login tickets
redeemed by the game-session service.`,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newCertsCmd())

	return cmd
}
