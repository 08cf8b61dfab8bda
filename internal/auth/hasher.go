// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

// Package auth provides account credential primitives for Riftgate.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PassHashLength is the length of a hex-encoded credential hash.
const PassHashLength = sha256.Size * 2

// UpperLatin uppercases the ASCII letters of s and leaves every other code
// point untouched. Legacy game clients apply the same transform before
// hashing, so the server must match it exactly rather than use a full
// Unicode case mapping.
func UpperLatin(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r - ('a' - 'A')
		}
		return r
	}, s)
}

// CalculatePassHash computes the stored comparison hash for an account name
// and password using the legacy double-SHA-256 scheme:
//
//	hex(SHA256(hex(SHA256(name)) + ":" + password))
//
// Both inputs are normalized with UpperLatin first and both hex encodings
// are uppercase. The account store keeps hashes produced by the identical
// scheme, so string equality of the result is the credential check.
func CalculatePassHash(name, password string) string {
	name = UpperLatin(name)
	password = UpperLatin(password)

	inner := sha256.Sum256([]byte(name))

	outer := sha256.New()
	outer.Write([]byte(hexUpper(inner[:])))
	outer.Write([]byte(":"))
	outer.Write([]byte(password))

	return hexUpper(outer.Sum(nil))
}

func hexUpper(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}
