// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

// Package config loads the gateway configuration from defaults, an optional
// YAML file, and command-line flags, in that order of precedence.
package config

import (
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default configuration values.
const (
	DefaultPort        = 8081
	DefaultBindIP      = "0.0.0.0"
	DefaultAddress     = "127.0.0.1"
	DefaultWaitSeconds = 60
)

// Config holds the full gateway configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Login    LoginConfig    `koanf:"login"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	TLS      TLSConfig      `koanf:"tls"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Format string `koanf:"format"` // "json" or "text"
}

// DatabaseConfig points at the account store.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// LoginConfig controls the login REST listener.
type LoginConfig struct {
	BindIP            string        `koanf:"bind_ip"`
	Port              int           `koanf:"port"`
	ExternalAddress   string        `koanf:"external_address"`
	LocalAddress      string        `koanf:"local_address"`
	LocalSubnets      []string      `koanf:"local_subnets"`
	TicketWaitSeconds int           `koanf:"ticket_wait_seconds"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
}

// MetricsConfig controls the observability server. An empty address
// disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// TLSConfig locates certificate material for the login listener.
type TLSConfig struct {
	CertsDir string `koanf:"certs_dir"`
}

// Addr returns the listen address of the login server.
func (c *LoginConfig) Addr() string {
	return net.JoinHostPort(c.BindIP, strconv.Itoa(c.Port))
}

// WaitWindow returns the ticket validity window as a duration.
func (c *LoginConfig) WaitWindow() time.Duration {
	return time.Duration(c.TicketWaitSeconds) * time.Second
}

func defaults() map[string]any {
	return map[string]any{
		"log.format":                "json",
		"database.url":              "",
		"login.bind_ip":             DefaultBindIP,
		"login.port":                DefaultPort,
		"login.external_address":    DefaultAddress,
		"login.local_address":       DefaultAddress,
		"login.local_subnets":       []string{},
		"login.ticket_wait_seconds": DefaultWaitSeconds,
		"login.request_timeout":     "15s",
		"metrics.addr":              "127.0.0.1:9100",
		"tls.certs_dir":             "certs",
	}
}

// Load builds the configuration. path is an optional YAML file; flags is an
// optional flag set whose changed flags override file values. Flag names
// use dots matching the koanf keys (e.g. --login.port).
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, oops.Code("CONFIG_DEFAULTS_FAILED").Wrap(err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_UNMARSHAL_FAILED").Wrap(err)
	}

	// The legacy service fell back to the default port on out-of-range
	// values instead of refusing to start; keep that behavior.
	if cfg.Login.Port < 1 || cfg.Login.Port > 0xFFFF {
		slog.Warn("configured login port out of range, using default",
			"configured", cfg.Login.Port, "default", DefaultPort)
		cfg.Login.Port = DefaultPort
	}

	if cfg.Login.TicketWaitSeconds <= 0 {
		cfg.Login.TicketWaitSeconds = DefaultWaitSeconds
	}
	if cfg.Login.RequestTimeout <= 0 {
		cfg.Login.RequestTimeout = 15 * time.Second
	}

	return &cfg, nil
}
