// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package auth

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// RealmHandle identifies a game realm within a region and site (battlegroup).
type RealmHandle struct {
	Region uint8
	Site   uint8
	Realm  uint32
}

// Address returns the packed numeric address of the realm, used as the key
// for per-realm character counts.
func (h RealmHandle) Address() uint32 {
	return uint32(h.Region)<<24 | uint32(h.Site)<<16 | (h.Realm & 0xFFFF)
}

// SubRegionAddress returns the textual subregion key ("region-site-0") used
// for last-played character lookups. The trailing zero means "any realm in
// the subregion".
func (h RealmHandle) SubRegionAddress() string {
	return fmt.Sprintf("%d-%d-0", h.Region, h.Site)
}

// LastPlayedCharacterInfo describes the most recently played character on a
// realm for an account.
type LastPlayedCharacterInfo struct {
	Realm          RealmHandle
	CharacterName  string
	CharacterGUID  uint64
	LastPlayedTime int64
}

// AccountInfo is the authenticated account snapshot built by the login
// pipeline and handed to the ticket store on success. It is owned
// exclusively by the in-flight request while being populated and must not
// be mutated after insertion.
type AccountInfo struct {
	ID                  uint32
	Login               string
	IsBanned            bool
	IsPermanentlyBanned bool

	// CharacterCounts maps a packed realm address to the number of
	// characters the account has on that realm.
	CharacterCounts map[uint32]uint8

	// LastPlayedCharacters maps a subregion address to the most recently
	// played character in that subregion.
	LastPlayedCharacters map[string]LastPlayedCharacterInfo
}

// NewAccountInfo creates an AccountInfo with initialized maps.
func NewAccountInfo(id uint32, login string) *AccountInfo {
	return &AccountInfo{
		ID:                   id,
		Login:                login,
		CharacterCounts:      make(map[uint32]uint8),
		LastPlayedCharacters: make(map[string]LastPlayedCharacterInfo),
	}
}
