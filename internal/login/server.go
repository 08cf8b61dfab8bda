// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package login

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Server terminates TLS and serves the login REST surface. Request
// processing happens on the goroutines the HTTP layer spawns per connection;
// the pipeline's account-store work never blocks the accept path.
type Server struct {
	addr      string
	tlsConfig *tls.Config
	handler   http.Handler

	mu         sync.RWMutex
	listener   net.Listener
	httpServer *http.Server
}

// NewServer creates a login server. tlsConfig must carry the server
// certificate; a nil tlsConfig serves plain HTTP and is intended for tests.
func NewServer(addr string, tlsConfig *tls.Config, handler http.Handler) *Server {
	return &Server{
		addr:      addr,
		tlsConfig: tlsConfig,
		handler:   handler,
	}
}

// Addr returns the bound listen address, or "" before Run.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run binds the listener and serves until the context is cancelled. A bind
// failure is returned to the caller and is fatal to the service; per-
// connection TLS handshake failures only terminate that connection.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}

	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	slog.Info("login server started", "addr", listener.Addr())

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Debug("error shutting down login server", "error", err)
		}
	}()

	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
