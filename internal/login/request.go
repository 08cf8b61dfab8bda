// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package login

import (
	"context"
	"sync"
)

// AsyncLoginRequest tracks one in-flight login submission. The pipeline
// goroutine completes it exactly once; the connection handler waits for the
// result with a deadline. The buffered channel lets the pipeline finish even
// if the handler has already given up, so completion never blocks.
type AsyncLoginRequest struct {
	remoteAddr string
	result     chan LoginResult
	once       sync.Once
}

func newAsyncLoginRequest(remoteAddr string) *AsyncLoginRequest {
	return &AsyncLoginRequest{
		remoteAddr: remoteAddr,
		result:     make(chan LoginResult, 1),
	}
}

// RemoteAddr returns the address of the originating connection.
func (r *AsyncLoginRequest) RemoteAddr() string {
	return r.remoteAddr
}

// Complete records the terminal result. Only the first call has any effect.
func (r *AsyncLoginRequest) Complete(result LoginResult) {
	r.once.Do(func() {
		r.result <- result
	})
}

// Wait blocks until the pipeline completes or the context is done. A context
// expiry yields the generic failure shape (DONE with no ticket), so the
// client always receives a well-formed body and a stuck account store cannot
// hold the connection open indefinitely.
func (r *AsyncLoginRequest) Wait(ctx context.Context) LoginResult {
	select {
	case result := <-r.result:
		return result
	case <-ctx.Done():
		return LoginResult{AuthenticationState: StateDone}
	}
}
