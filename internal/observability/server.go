// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

// Package observability provides HTTP endpoints for metrics and health checks.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker returns whether the service is ready to accept connections.
type ReadinessChecker func() bool

// Metrics contains the gateway's Prometheus metrics. It satisfies the
// metrics interfaces of the login and ticket packages.
type Metrics struct {
	loginAttempts   *prometheus.CounterVec
	ticketsIssued   prometheus.Counter
	ticketsRedeemed prometheus.Counter
	ticketsSwept    prometheus.Counter
}

// NewMetrics creates and registers the gateway metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riftgate_login_attempts_total",
				Help: "Total number of login attempts by result",
			},
			[]string{"result"},
		),
		ticketsIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "riftgate_tickets_issued_total",
				Help: "Total number of login tickets issued",
			},
		),
		ticketsRedeemed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "riftgate_tickets_redeemed_total",
				Help: "Total number of login tickets redeemed",
			},
		),
		ticketsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "riftgate_tickets_swept_total",
				Help: "Total number of expired login tickets evicted",
			},
		),
	}

	reg.MustRegister(m.loginAttempts)
	reg.MustRegister(m.ticketsIssued)
	reg.MustRegister(m.ticketsRedeemed)
	reg.MustRegister(m.ticketsSwept)

	return m
}

// LoginAttempt records a login attempt outcome.
func (m *Metrics) LoginAttempt(result string) {
	m.loginAttempts.WithLabelValues(result).Inc()
}

// TicketIssued records one issued ticket.
func (m *Metrics) TicketIssued() {
	m.ticketsIssued.Inc()
}

// TicketRedeemed records one redeemed ticket.
func (m *Metrics) TicketRedeemed() {
	m.ticketsRedeemed.Inc()
}

// TicketsSwept records n evicted tickets.
func (m *Metrics) TicketsSwept(n int) {
	m.ticketsSwept.Add(float64(n))
}

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (e.g., "127.0.0.1:9100").
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	// Own registry to avoid polluting the global one
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &Server{
		addr:     addr,
		registry: registry,
		metrics:  NewMetrics(registry),
		isReady:  readinessChecker,
	}
}

// Metrics returns the gateway metrics for recording application events.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start begins serving observability endpoints. It returns an error channel
// that receives any error from the HTTP server after it starts; the channel
// is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the observability server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return oops.With("operation", "shutdown observability server").Wrap(err)
		}
	}
	return nil
}

// handleLiveness always reports healthy while the process is up.
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadiness reports ready once the readiness checker says so.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	if s.isReady != nil && !s.isReady() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
