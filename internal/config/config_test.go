// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Riftgate Contributors

package config_test

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftgate/riftgate/internal/config"
	"github.com/riftgate/riftgate/pkg/errutil"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riftgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, config.DefaultBindIP, cfg.Login.BindIP)
	assert.Equal(t, config.DefaultPort, cfg.Login.Port)
	assert.Equal(t, config.DefaultAddress, cfg.Login.ExternalAddress)
	assert.Equal(t, config.DefaultAddress, cfg.Login.LocalAddress)
	assert.Equal(t, config.DefaultWaitSeconds, cfg.Login.TicketWaitSeconds)
	assert.Equal(t, 15*time.Second, cfg.Login.RequestTimeout)
	assert.Equal(t, "127.0.0.1:9100", cfg.Metrics.Addr)
	assert.Equal(t, "certs", cfg.TLS.CertsDir)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
log:
  format: text
database:
  url: postgres://auth:secret@db:5432/riftgate
login:
  port: 9443
  external_address: login.example.com
  ticket_wait_seconds: 120
  request_timeout: 5s
  local_subnets:
    - 10.0.0.0/8
    - 192.168.0.0/16
metrics:
  addr: ""
`)

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "postgres://auth:secret@db:5432/riftgate", cfg.Database.URL)
	assert.Equal(t, 9443, cfg.Login.Port)
	assert.Equal(t, "login.example.com", cfg.Login.ExternalAddress)
	assert.Equal(t, 120, cfg.Login.TicketWaitSeconds)
	assert.Equal(t, 5*time.Second, cfg.Login.RequestTimeout)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.0.0/16"}, cfg.Login.LocalSubnets)
	assert.Empty(t, cfg.Metrics.Addr)

	// Untouched keys keep their defaults.
	assert.Equal(t, config.DefaultBindIP, cfg.Login.BindIP)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := writeConfigFile(t, `
login:
  port: 9443
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("login.port", config.DefaultPort, "")
	flags.String("login.external_address", config.DefaultAddress, "")
	require.NoError(t, flags.Parse([]string{"--login.port=9001"}))

	cfg, err := config.Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, 9001, cfg.Login.Port, "changed flag wins over file")
	assert.Equal(t, config.DefaultAddress, cfg.Login.ExternalAddress,
		"unchanged flag must not clobber defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/riftgate.yaml", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_FAILED")
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeConfigFile(t, "login: [not a map")

	_, err := config.Load(path, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_FAILED")
}

func TestLoad_PortFallback(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero", 0},
		{"negative", -1},
		{"above 16 bit range", 70000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, "login:\n  port: "+strconv.Itoa(tt.port)+"\n")

			cfg, err := config.Load(path, nil)
			require.NoError(t, err, "out-of-range port falls back instead of failing")
			assert.Equal(t, config.DefaultPort, cfg.Login.Port)
		})
	}
}

func TestLoad_WaitSecondsFallback(t *testing.T) {
	path := writeConfigFile(t, "login:\n  ticket_wait_seconds: 0\n")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultWaitSeconds, cfg.Login.TicketWaitSeconds)
}

func TestLoginConfig_Addr(t *testing.T) {
	cfg := config.LoginConfig{BindIP: "0.0.0.0", Port: 8081}
	assert.Equal(t, "0.0.0.0:8081", cfg.Addr())
}

func TestLoginConfig_WaitWindow(t *testing.T) {
	cfg := config.LoginConfig{TicketWaitSeconds: 90}
	assert.Equal(t, 90*time.Second, cfg.WaitWindow())
}
