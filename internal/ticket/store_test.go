// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package ticket_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftgate/riftgate/internal/auth"
	"github.com/riftgate/riftgate/internal/ticket"
)

// fakeClock is a settable time source.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(opts ...ticket.Option) (*ticket.Store, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)}
	opts = append([]ticket.Option{ticket.WithClock(clock.Now)}, opts...)
	return ticket.NewStore(opts...), clock
}

func TestGenerate(t *testing.T) {
	pattern := regexp.MustCompile(`^TC-[0-9A-F]{40}$`)

	t.Run("matches the ticket format", func(t *testing.T) {
		id, err := ticket.Generate()
		require.NoError(t, err)
		assert.Regexp(t, pattern, id)
	})

	t.Run("successive tickets differ", func(t *testing.T) {
		a, err := ticket.Generate()
		require.NoError(t, err)
		b, err := ticket.Generate()
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestStore_Verify(t *testing.T) {
	t.Run("returns the bound account once", func(t *testing.T) {
		store, _ := newTestStore()
		account := auth.NewAccountInfo(1, "USER")
		store.Insert("TC-AAAA", account)

		got := store.Verify("TC-AAAA")
		require.NotNil(t, got)
		assert.Equal(t, account, got)

		assert.Nil(t, store.Verify("TC-AAAA"), "ticket must be single-use")
	})

	t.Run("unknown ticket is absent", func(t *testing.T) {
		store, _ := newTestStore()
		assert.Nil(t, store.Verify("TC-UNKNOWN"))
	})

	t.Run("valid until just before the window elapses", func(t *testing.T) {
		store, clock := newTestStore()
		store.Insert("TC-AAAA", auth.NewAccountInfo(1, "USER"))

		clock.Advance(ticket.DefaultWaitWindow - time.Millisecond)
		assert.NotNil(t, store.Verify("TC-AAAA"))
	})

	t.Run("absent at the expiry instant without a sweep", func(t *testing.T) {
		store, clock := newTestStore()
		store.Insert("TC-AAAA", auth.NewAccountInfo(1, "USER"))

		clock.Advance(ticket.DefaultWaitWindow)
		assert.Nil(t, store.Verify("TC-AAAA"))
		assert.Equal(t, 1, store.Len(), "expired entry is left for the sweeper")
	})

	t.Run("overwrite resets the expiry", func(t *testing.T) {
		store, clock := newTestStore()
		first := auth.NewAccountInfo(1, "FIRST")
		second := auth.NewAccountInfo(2, "SECOND")

		store.Insert("TC-AAAA", first)
		clock.Advance(40 * time.Second)
		store.Insert("TC-AAAA", second)
		clock.Advance(40 * time.Second)

		// 80s since the first insert, 40s since the overwrite: the
		// entry is still valid and carries the second account.
		got := store.Verify("TC-AAAA")
		require.NotNil(t, got)
		assert.Equal(t, second, got)
	})

	t.Run("custom wait window", func(t *testing.T) {
		store, clock := newTestStore(ticket.WithWaitWindow(5 * time.Second))
		store.Insert("TC-AAAA", auth.NewAccountInfo(1, "USER"))

		clock.Advance(6 * time.Second)
		assert.Nil(t, store.Verify("TC-AAAA"))
	})
}

func TestStore_Sweep(t *testing.T) {
	t.Run("removes only expired entries", func(t *testing.T) {
		store, clock := newTestStore()
		store.Insert("TC-OLD", auth.NewAccountInfo(1, "OLD"))
		clock.Advance(30 * time.Second)
		store.Insert("TC-NEW", auth.NewAccountInfo(2, "NEW"))
		clock.Advance(31 * time.Second)

		assert.Equal(t, 1, store.Sweep())
		assert.Equal(t, 1, store.Len())
		assert.NotNil(t, store.Verify("TC-NEW"))
	})

	t.Run("idempotent", func(t *testing.T) {
		store, clock := newTestStore()
		store.Insert("TC-AAAA", auth.NewAccountInfo(1, "USER"))
		store.Insert("TC-BBBB", auth.NewAccountInfo(2, "OTHER"))
		clock.Advance(ticket.DefaultWaitWindow + time.Second)

		assert.Equal(t, 2, store.Sweep())
		assert.Equal(t, 0, store.Sweep(), "second sweep removes nothing")
	})

	t.Run("empty store", func(t *testing.T) {
		store, _ := newTestStore()
		assert.Equal(t, 0, store.Sweep())
	})
}

func TestStore_Run(t *testing.T) {
	store, _ := newTestStore()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

type countingMetrics struct {
	issued, redeemed, swept int
}

func (m *countingMetrics) TicketIssued()      { m.issued++ }
func (m *countingMetrics) TicketRedeemed()    { m.redeemed++ }
func (m *countingMetrics) TicketsSwept(n int) { m.swept += n }

func TestStore_Metrics(t *testing.T) {
	metrics := &countingMetrics{}
	store, clock := newTestStore(ticket.WithMetrics(metrics))

	store.Insert("TC-AAAA", auth.NewAccountInfo(1, "A"))
	store.Insert("TC-BBBB", auth.NewAccountInfo(2, "B"))
	store.Verify("TC-AAAA")
	clock.Advance(ticket.DefaultWaitWindow + time.Second)
	store.Sweep()

	assert.Equal(t, 2, metrics.issued)
	assert.Equal(t, 1, metrics.redeemed)
	assert.Equal(t, 1, metrics.swept)
}
