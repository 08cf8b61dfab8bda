// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package login

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/samber/oops"

	"github.com/riftgate/riftgate/internal/auth"
	"github.com/riftgate/riftgate/internal/ticket"
)

// Login attempt results recorded in metrics.
const (
	attemptSuccess      = "success"
	attemptUnknown      = "unknown_account"
	attemptBadPassword  = "invalid_password"
	attemptBanned       = "banned"
	attemptStoreFailure = "store_failure"
)

// AccountStore defines the account-store lookups the pipeline performs, one
// per stage. Implemented by postgres.AccountRepository.
type AccountStore interface {
	// AccountByLogin returns the account row and stored credential hash
	// for a normalized login, or a wrapped auth.ErrNotFound.
	AccountByLogin(ctx context.Context, login string) (*auth.AccountInfo, string, error)

	// CharacterCounts returns per-realm character counts keyed by packed
	// realm address.
	CharacterCounts(ctx context.Context, accountID uint32) (map[uint32]uint8, error)

	// LastPlayedCharacters returns the most recent character per
	// subregion keyed by subregion address.
	LastPlayedCharacters(ctx context.Context, accountID uint32) (map[string]auth.LastPlayedCharacterInfo, error)
}

// Metrics receives login attempt outcomes. A nil Metrics disables recording.
type Metrics interface {
	LoginAttempt(result string)
}

// Service orchestrates the three-stage login pipeline and ticket issuance.
type Service struct {
	store   AccountStore
	tickets *ticket.Store
	logger  *slog.Logger
	metrics Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger attaches a logger. The default discards all records.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches attempt counters.
func WithMetrics(m Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a login Service. Returns an error if a required
// dependency is nil.
func NewService(store AccountStore, tickets *ticket.Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, oops.Errorf("account store is required")
	}
	if tickets == nil {
		return nil, oops.Errorf("ticket store is required")
	}
	s := &Service{
		store:   store,
		tickets: tickets,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Login starts the asynchronous pipeline for a submitted form and returns
// immediately. The caller observes the terminal result through the returned
// request; the pipeline completes it exactly once. Stages run strictly in
// sequence on a dedicated goroutine so the connection handler never blocks
// on the account store.
func (s *Service) Login(ctx context.Context, form *LoginForm, remoteAddr string) *AsyncLoginRequest {
	var name, password string
	for _, input := range form.Inputs {
		switch input.InputID {
		case InputAccountName:
			name = input.Value
		case InputPassword:
			password = input.Value
		}
	}

	name = auth.UpperLatin(name)
	passHash := auth.CalculatePassHash(name, password)

	req := newAsyncLoginRequest(remoteAddr)
	go s.runPipeline(ctx, req, name, passHash)
	return req
}

// VerifyTicket redeems a login ticket for its account snapshot. This is the
// seam the game-session service calls when a client presents a ticket.
// Returns nil for unknown, already redeemed, or expired tickets.
func (s *Service) VerifyTicket(id string) *auth.AccountInfo {
	return s.tickets.Verify(id)
}

func (s *Service) runPipeline(ctx context.Context, req *AsyncLoginRequest, name, passHash string) {
	account, ok := s.stageCredentials(ctx, req, name, passHash)
	if !ok {
		req.Complete(LoginResult{AuthenticationState: StateDone})
		return
	}

	s.stageCharacterCounts(ctx, account)
	s.stageLastPlayedCharacters(ctx, account)

	id, err := ticket.Generate()
	if err != nil {
		s.logger.ErrorContext(ctx, "login ticket generation failed",
			"remote_addr", req.RemoteAddr(), "error", err)
		s.record(attemptStoreFailure)
		req.Complete(LoginResult{AuthenticationState: StateDone})
		return
	}

	s.tickets.Insert(id, account)
	s.record(attemptSuccess)
	s.logger.InfoContext(ctx, "login succeeded",
		"account_id", account.ID, "remote_addr", req.RemoteAddr())

	req.Complete(LoginResult{
		AuthenticationState: StateDone,
		LoginTicket:         id,
	})
}

// stageCredentials looks up the account row and compares credential hashes.
// Every failure mode collapses into the same terminal shape for the client;
// only logs and metrics distinguish them.
func (s *Service) stageCredentials(ctx context.Context, req *AsyncLoginRequest, name, passHash string) (*auth.AccountInfo, bool) {
	account, storedHash, err := s.store.AccountByLogin(ctx, name)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			s.record(attemptUnknown)
			s.logger.DebugContext(ctx, "login attempt for unknown account",
				"remote_addr", req.RemoteAddr())
		} else {
			s.record(attemptStoreFailure)
			s.logger.WarnContext(ctx, "account lookup failed",
				"remote_addr", req.RemoteAddr(), "error", err)
		}
		return nil, false
	}

	if passHash != storedHash {
		s.record(attemptBadPassword)
		s.logger.DebugContext(ctx, "login attempt with invalid password",
			"account_id", account.ID, "remote_addr", req.RemoteAddr())
		return nil, false
	}

	// Banned accounts fail like bad credentials. The response shape must
	// not reveal the ban to an unauthenticated caller.
	if account.IsBanned || account.IsPermanentlyBanned {
		s.record(attemptBanned)
		s.logger.InfoContext(ctx, "login attempt for banned account",
			"account_id", account.ID, "remote_addr", req.RemoteAddr())
		return nil, false
	}

	return account, true
}

// stageCharacterCounts fills the per-realm character count map. A store
// error degrades to "no rows"; the pipeline always advances.
func (s *Service) stageCharacterCounts(ctx context.Context, account *auth.AccountInfo) {
	counts, err := s.store.CharacterCounts(ctx, account.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "character count lookup failed",
			"account_id", account.ID, "error", err)
		return
	}
	account.CharacterCounts = counts
}

// stageLastPlayedCharacters fills the per-subregion last played map. A store
// error degrades to "no rows".
func (s *Service) stageLastPlayedCharacters(ctx context.Context, account *auth.AccountInfo) {
	characters, err := s.store.LastPlayedCharacters(ctx, account.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "last played character lookup failed",
			"account_id", account.ID, "error", err)
		return
	}
	account.LastPlayedCharacters = characters
}

func (s *Service) record(result string) {
	if s.metrics != nil {
		s.metrics.LoginAttempt(result)
	}
}
