package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teranos/clangcomplete/version"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clangcomplete.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultBackendCommand, cfg.Backend.Command)
	assert.Equal(t, 5*time.Second, cfg.Completion.Timeout())
	assert.Equal(t, version.DefaultProtocolConstraint, cfg.Backend.ProtocolConstraint)
	assert.Equal(t, 100*time.Millisecond, cfg.Backend.InitialBackoff())
	assert.Equal(t, 5*time.Second, cfg.Backend.MaxBackoff())
	assert.False(t, cfg.Log.JSON)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
[backend]
command = "clangbackend --log-level debug"
alive_timeout_ms = 0

[backend.env]
CLANG_RESOURCE_DIR = "/opt/clang"

[completion]
timeout_ms = 250
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "clangbackend --log-level debug", cfg.Backend.Command)
	assert.Equal(t, time.Duration(0), cfg.Backend.AliveTimeout())
	assert.Equal(t, "/opt/clang", cfg.Backend.Env["clang_resource_dir"])
	assert.Equal(t, 250*time.Millisecond, cfg.Completion.Timeout())
	// untouched keys keep their defaults
	assert.Equal(t, DefaultReadyTimeoutMS, cfg.Backend.ReadyTimeoutMS)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CLANGCOMPLETE_COMPLETION_TIMEOUT_MS", "1200")
	t.Setenv("CLANGCOMPLETE_BACKEND_COMMAND", "/usr/local/bin/clangbackend")

	cfg, err := LoadWithViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, 1200*time.Millisecond, cfg.Completion.Timeout())
	assert.Equal(t, "/usr/local/bin/clangbackend", cfg.Backend.Command)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"empty command", func(c *Config) { c.Backend.Command = "" }, "backend.command cannot be empty"},
		{"unbalanced quotes", func(c *Config) { c.Backend.Command = `clangbackend "--log-level` }, "not a valid command line"},
		{"zero ready timeout", func(c *Config) { c.Backend.ReadyTimeoutMS = 0 }, "ready_timeout_ms"},
		{"negative alive timeout", func(c *Config) { c.Backend.AliveTimeoutMS = -1 }, "alive_timeout_ms"},
		{"backoff cap below initial", func(c *Config) { c.Backend.MaxBackoffMS = 10 }, "max_backoff_ms"},
		{"zero restart rate", func(c *Config) { c.Backend.RestartsPerMinute = 0 }, "restarts_per_minute"},
		{"zero burst", func(c *Config) { c.Backend.RestartBurst = 0 }, "restart_burst"},
		{"zero attempts", func(c *Config) { c.Backend.MaxRestartAttempts = 0 }, "max_restart_attempts"},
		{"bad constraint", func(c *Config) { c.Backend.ProtocolConstraint = "not-a-version" }, "protocol_constraint"},
		{"zero completion timeout", func(c *Config) { c.Completion.TimeoutMS = 0 }, "completion.timeout_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadWithViperRejectsInvalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("completion.timeout_ms", -5)

	_, err := LoadWithViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
