// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/riftgate/riftgate/internal/auth/postgres"
	"github.com/riftgate/riftgate/internal/config"
	"github.com/riftgate/riftgate/internal/logging"
	"github.com/riftgate/riftgate/internal/login"
	"github.com/riftgate/riftgate/internal/observability"
	"github.com/riftgate/riftgate/internal/store"
	"github.com/riftgate/riftgate/internal/ticket"
	riftgateTLS "github.com/riftgate/riftgate/internal/tls"
	"github.com/riftgate/riftgate/pkg/errutil"
)

// shutdownTimeout bounds graceful shutdown of auxiliary servers.
const shutdownTimeout = 5 * time.Second

// newServeCmd creates the serve subcommand.
func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the login gateway",
		Long: `Start the login gateway: bind the TLS listener, serve the login
form, verify submitted credentials against the account store, and issue
login tickets.`,
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file path")
	flags.String("log.format", "json", "log format (json or text)")
	flags.String("login.bind_ip", config.DefaultBindIP, "login listener bind address")
	flags.Int("login.port", config.DefaultPort, "login listener port")
	flags.String("login.external_address", config.DefaultAddress, "externally advertised address")
	flags.String("login.local_address", config.DefaultAddress, "locally advertised address")
	flags.Int("login.ticket_wait_seconds", config.DefaultWaitSeconds, "login ticket validity window in seconds")
	flags.String("database.url", "", "account store connection URL")
	flags.String("metrics.addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	flags.String("tls.certs_dir", "certs", "directory holding TLS certificates")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configFile, cmd.Flags())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return runServe(cmd.Context(), cfg)
	}

	return cmd
}

// runServe wires the gateway together and blocks until shutdown.
func runServe(ctx context.Context, cfg *config.Config) error {
	logging.SetDefault("riftgate", version, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting login gateway",
		"addr", cfg.Login.Addr(),
		"external_address", cfg.Login.ExternalAddress,
		"local_address", cfg.Login.LocalAddress,
		"ticket_wait_seconds", cfg.Login.TicketWaitSeconds,
	)

	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	tlsConfig, err := riftgateTLS.EnsureServerTLS(cfg.TLS.CertsDir, "login",
		[]string{cfg.Login.ExternalAddress, cfg.Login.LocalAddress})
	if err != nil {
		return fmt.Errorf("failed to set up TLS: %w", err)
	}
	slog.Info("TLS certificate loaded", "certs_dir", cfg.TLS.CertsDir)

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to account store: %w", err)
	}
	defer pool.Close()
	slog.Info("account store connected")

	var ready atomic.Bool
	var metrics *observability.Metrics

	if cfg.Metrics.Addr != "" {
		obs := observability.NewServer(cfg.Metrics.Addr, ready.Load)
		obsErrCh, err := obs.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if stopErr := obs.Stop(shutdownCtx); stopErr != nil {
				slog.Warn("error stopping observability server", "error", stopErr)
			}
		}()
		go func() {
			if obsErr := <-obsErrCh; obsErr != nil {
				errutil.LogError(slog.Default(), "observability server error", obsErr)
			}
		}()
		metrics = obs.Metrics()
	}

	ticketOpts := []ticket.Option{ticket.WithWaitWindow(cfg.Login.WaitWindow())}
	if metrics != nil {
		ticketOpts = append(ticketOpts, ticket.WithMetrics(metrics))
	}
	tickets := ticket.NewStore(ticketOpts...)
	go tickets.Run(ctx)

	endpoints, err := login.NewEndpoints(
		cfg.Login.ExternalAddress,
		cfg.Login.LocalAddress,
		uint16(cfg.Login.Port),
		cfg.Login.LocalSubnets,
	)
	if err != nil {
		return fmt.Errorf("failed to resolve advertised addresses: %w", err)
	}
	slog.Info("advertised login endpoint", "external", endpoints.External())

	repo := postgres.NewAccountRepository(pool)

	serviceOpts := []login.ServiceOption{login.WithLogger(slog.Default())}
	if metrics != nil {
		serviceOpts = append(serviceOpts, login.WithMetrics(metrics))
	}
	service, err := login.NewService(repo, tickets, serviceOpts...)
	if err != nil {
		return fmt.Errorf("failed to create login service: %w", err)
	}

	handler, err := login.NewHandler(service,
		login.WithHandlerLogger(slog.Default()),
		login.WithRequestTimeout(cfg.Login.RequestTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create login handler: %w", err)
	}

	server := login.NewServer(cfg.Login.Addr(), tlsConfig, handler.Routes())
	ready.Store(true)

	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("login server failed: %w", err)
	}

	slog.Info("login gateway stopped")
	return nil
}
