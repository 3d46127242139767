package config

import (
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got error: %v", err)
	}
	if cfg.Server.Address != ":5000" {
		t.Fatalf("expected default address :5000, got %s", cfg.Server.Address)
	}
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name: "server address must not be empty",
			mutate: func(c *Config) {
				c.Server.Address = ""
			},
		},
		{
			name: "ping interval must be > 0",
			mutate: func(c *Config) {
				c.Signal.PingInterval = 0
			},
		},
		{
			name: "pong timeout must be > 0",
			mutate: func(c *Config) {
				c.Signal.PongTimeout = 0
			},
		},
		{
			name: "logging level must not be empty",
			mutate: func(c *Config) {
				c.Logging.Level = ""
			},
		},
		{
			name: "tracing sample rate must be in (0, 1]",
			mutate: func(c *Config) {
				c.Tracing.Enabled = true
				c.Tracing.SampleRate = 2.0
			},
		},
		{
			name: "ws messages per second must be > 0 when enabled",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = true
				c.RateLimiting.WebSocket.MessagesPerSecond = 0
			},
		},
		{
			name: "http burst must be > 0 when enabled",
			mutate: func(c *Config) {
				c.RateLimiting.Enabled = true
				c.RateLimiting.HTTP.Burst = 0
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error, got nil")
			}
		})
	}
}

func TestValidate_RateLimitingDisabled_AllowsZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 0
	cfg.RateLimiting.HTTP.Burst = 0
	cfg.RateLimiting.WebSocket.MessagesPerSecond = 0
	cfg.RateLimiting.WebSocket.Burst = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected config to be valid when rate limiting disabled, got error: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("PAIRLINK_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Server.Address != ":9999" {
		t.Fatalf("expected PORT override to set address :9999, got %s", cfg.Server.Address)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestEnvOverride_ExplicitAddressWinsOverPort(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("PAIRLINK_SERVER_ADDRESS", "127.0.0.1:4000")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Server.Address != "127.0.0.1:4000" {
		t.Fatalf("expected explicit address to win, got %s", cfg.Server.Address)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("does/not/exist.yaml")
	if err != nil {
		t.Fatalf("expected defaults for missing file, got error: %v", err)
	}
	if cfg.Signal.PingInterval != DefaultConfig().Signal.PingInterval {
		t.Fatal("expected default signal settings")
	}
}
