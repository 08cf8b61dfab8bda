// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package login

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsyncLoginRequest_CompleteOnce(t *testing.T) {
	req := newAsyncLoginRequest("192.0.2.1:4000")

	req.Complete(LoginResult{AuthenticationState: StateDone, LoginTicket: "TC-FIRST"})
	req.Complete(LoginResult{AuthenticationState: StateDone, LoginTicket: "TC-SECOND"})

	result := req.Wait(context.Background())
	assert.Equal(t, "TC-FIRST", result.LoginTicket, "first completion wins")
	assert.Equal(t, "192.0.2.1:4000", req.RemoteAddr())
}

func TestAsyncLoginRequest_WaitDeadline(t *testing.T) {
	req := newAsyncLoginRequest("")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := req.Wait(ctx)
	assert.Equal(t, StateDone, result.AuthenticationState)
	assert.Empty(t, result.LoginTicket)
}
