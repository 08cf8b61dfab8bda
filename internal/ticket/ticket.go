// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

// Package ticket provides the in-memory login ticket store.
package ticket

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/samber/oops"
)

// Ticket format configuration.
const (
	// TokenBytes is the number of random bytes in a ticket token.
	TokenBytes = 20

	// Prefix is prepended to every hex-encoded ticket token.
	Prefix = "TC-"
)

// Generate creates a fresh login ticket identifier: the Prefix followed by
// TokenBytes cryptographically random bytes in uppercase hex.
func Generate() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("TICKET_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", TokenBytes).
			Wrap(err)
	}
	return Prefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
