// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

// Package postgres implements the account store lookups against PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/riftgate/riftgate/internal/auth"
)

// DB is the subset of pgxpool.Pool the repository needs. It is satisfied by
// both *pgxpool.Pool and pgxmock's pool interface.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository performs the login pipeline's lookups.
type AccountRepository struct {
	db DB
}

// NewAccountRepository creates an AccountRepository.
func NewAccountRepository(db DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// AccountByLogin retrieves the account row for a normalized login and the
// stored credential hash. Returns auth.ErrNotFound (wrapped) when no account
// matches.
func (r *AccountRepository) AccountByLogin(ctx context.Context, login string) (*auth.AccountInfo, string, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, is_banned, is_permanently_banned, sha_pass_hash
		FROM battlenet_accounts
		WHERE email = $1
	`, login)

	var (
		id       int64
		email    string
		banned   bool
		permBan  bool
		passHash string
	)
	err := row.Scan(&id, &email, &banned, &permBan, &passHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", oops.Code("ACCOUNT_NOT_FOUND").
			With("login", login).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, "", wrapStoreErr("ACCOUNT_LOOKUP_FAILED", "select account by login", err)
	}

	account := auth.NewAccountInfo(uint32(id), email)
	account.IsBanned = banned
	account.IsPermanentlyBanned = permBan
	return account, passHash, nil
}

// CharacterCounts retrieves per-realm character counts for an account, keyed
// by packed realm address. Accounts with no characters yield an empty map.
func (r *AccountRepository) CharacterCounts(ctx context.Context, accountID uint32) (map[uint32]uint8, error) {
	rows, err := r.db.Query(ctx, `
		SELECT region, site, realm_id, num_chars
		FROM account_character_counts
		WHERE account_id = $1
	`, int64(accountID))
	if err != nil {
		return nil, wrapStoreErr("CHARACTER_COUNTS_FAILED", "select character counts", err)
	}
	defer rows.Close()

	counts := make(map[uint32]uint8)
	for rows.Next() {
		var (
			region, site int16
			realmID      int32
			numChars     int16
		)
		if err := rows.Scan(&region, &site, &realmID, &numChars); err != nil {
			return nil, oops.Code("CHARACTER_COUNTS_FAILED").
				With("operation", "scan character count row").
				Wrap(err)
		}
		handle := auth.RealmHandle{Region: uint8(region), Site: uint8(site), Realm: uint32(realmID)}
		counts[handle.Address()] = uint8(numChars)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("CHARACTER_COUNTS_FAILED", "iterate character counts", err)
	}
	return counts, nil
}

// LastPlayedCharacters retrieves the most recently played character per
// subregion for an account, keyed by subregion address.
func (r *AccountRepository) LastPlayedCharacters(ctx context.Context, accountID uint32) (map[string]auth.LastPlayedCharacterInfo, error) {
	rows, err := r.db.Query(ctx, `
		SELECT region, site, realm_id, character_name, character_guid, last_played_time
		FROM account_last_played_characters
		WHERE account_id = $1
	`, int64(accountID))
	if err != nil {
		return nil, wrapStoreErr("LAST_PLAYED_FAILED", "select last played characters", err)
	}
	defer rows.Close()

	characters := make(map[string]auth.LastPlayedCharacterInfo)
	for rows.Next() {
		var (
			region, site int16
			realmID      int32
			name         string
			guid         int64
			lastPlayed   int64
		)
		if err := rows.Scan(&region, &site, &realmID, &name, &guid, &lastPlayed); err != nil {
			return nil, oops.Code("LAST_PLAYED_FAILED").
				With("operation", "scan last played row").
				Wrap(err)
		}
		handle := auth.RealmHandle{Region: uint8(region), Site: uint8(site), Realm: uint32(realmID)}
		characters[handle.SubRegionAddress()] = auth.LastPlayedCharacterInfo{
			Realm:          handle,
			CharacterName:  name,
			CharacterGUID:  uint64(guid),
			LastPlayedTime: lastPlayed,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr("LAST_PLAYED_FAILED", "iterate last played characters", err)
	}
	return characters, nil
}

// wrapStoreErr wraps a query error, distinguishing connection-level failures
// so callers can log store outages at a higher severity.
func wrapStoreErr(code, operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsConnectionException(pgErr.Code) {
		return oops.Code("ACCOUNT_STORE_UNAVAILABLE").
			With("operation", operation).
			With("pg_code", pgErr.Code).
			Wrap(err)
	}
	return oops.Code(code).
		With("operation", operation).
		Wrap(err)
}
