// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package main

import (
	"github.com/spf13/cobra"

	riftgateTLS "github.com/riftgate/riftgate/internal/tls"
)

// newCertsCmd creates the certs subcommand.
func newCertsCmd() *cobra.Command {
	var (
		certsDir string
		hosts    []string
	)

	cmd := &cobra.Command{
		Use:   "certs",
		Short: "Generate the CA and login server certificate",
		Long: `Generate a self-signed CA and a login server certificate into
the certs directory. Existing certificates are overwritten.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ca, err := riftgateTLS.GenerateCA()
			if err != nil {
				return err
			}
			serverCert, err := riftgateTLS.GenerateServerCert(ca, "login", hosts)
			if err != nil {
				return err
			}
			if err := riftgateTLS.SaveCertificates(certsDir, ca, serverCert); err != nil {
				return err
			}
			cmd.Printf("certificates written to %s\n", certsDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&certsDir, "certs-dir", "certs", "output directory")
	cmd.Flags().StringSliceVar(&hosts, "host", nil, "additional DNS names or IPs for the server certificate")

	return cmd
}
