// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package ticket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/riftgate/riftgate/internal/auth"
)

// Store timing configuration.
const (
	// DefaultWaitWindow is how long an issued ticket stays redeemable.
	DefaultWaitWindow = 60 * time.Second

	// SweepInterval is how often expired tickets are evicted.
	SweepInterval = 10 * time.Second
)

type entry struct {
	account *auth.AccountInfo
	expiry  time.Time
}

// Metrics receives ticket lifecycle counts. All methods must be safe for
// concurrent use. A nil Metrics disables recording.
type Metrics interface {
	TicketIssued()
	TicketRedeemed()
	TicketsSwept(n int)
}

// Store is a thread-safe map of pending login tickets with time-based
// eviction. Tickets are single-use: the first successful Verify removes the
// entry. The zero value is not usable; construct with NewStore.
type Store struct {
	mu      sync.Mutex
	tickets map[string]entry
	window  time.Duration
	now     func() time.Time
	metrics Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithWaitWindow overrides the ticket validity window.
func WithWaitWindow(d time.Duration) Option {
	return func(s *Store) { s.window = d }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMetrics attaches lifecycle counters.
func WithMetrics(m Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates an empty ticket store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		tickets: make(map[string]entry),
		window:  DefaultWaitWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert binds a ticket identifier to a fully built account snapshot with
// expiry = now + wait window. Inserting an identifier that already exists
// overwrites the previous account and resets the expiry (last writer wins).
func (s *Store) Insert(id string, account *auth.AccountInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tickets[id] = entry{
		account: account,
		expiry:  s.now().Add(s.window),
	}
	if s.metrics != nil {
		s.metrics.TicketIssued()
	}
}

// Verify redeems a ticket. If the identifier exists and has not expired, the
// entry is removed and its account returned; a second Verify with the same
// identifier returns nil. An expired entry returns nil but is left in place
// for the sweeper.
func (s *Store) Verify(id string) *auth.AccountInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.tickets[id]
	if !ok || !e.expiry.After(s.now()) {
		return nil
	}

	delete(s.tickets, id)
	if s.metrics != nil {
		s.metrics.TicketRedeemed()
	}
	return e.account
}

// Sweep removes every expired ticket and returns the number removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.tickets {
		if e.expiry.Before(now) {
			delete(s.tickets, id)
			removed++
		}
	}
	if removed > 0 && s.metrics != nil {
		s.metrics.TicketsSwept(removed)
	}
	return removed
}

// Len returns the number of pending tickets, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

// Run sweeps the store every SweepInterval until the context is cancelled.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				slog.Debug("swept expired login tickets", "removed", removed)
			}
		}
	}
}
