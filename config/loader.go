package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the GOTELNET_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations accept Go
// syntax ("1500ms", "2m") or a bare number of seconds.

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  Call it BEFORE flag parsing
// so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := envInt("GOTELNET_PORT"); v > 0 {
		cfg.Port = v
	}
	if v, ok := envDuration("GOTELNET_TIMEOUT"); ok {
		cfg.Timeout = v
	}
	if v, ok := envDuration("GOTELNET_CONSUME_TIMEOUT"); ok {
		cfg.ConsumeTimeout = v
	}
	if v, ok := envDuration("GOTELNET_POLL"); ok {
		cfg.PollInterval = v
	}
	if v, ok := envDuration("GOTELNET_DRAIN"); ok {
		cfg.BannerDrain = v
	}
	if v := os.Getenv("GOTELNET_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retries = n
		}
	}

	// Login
	if v := os.Getenv("GOTELNET_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("GOTELNET_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("GOTELNET_SHELL_PROMPT"); v != "" {
		cfg.ShellPrompt = v
	}

	// SSH gateway
	if v := os.Getenv("GOTELNET_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("GOTELNET_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("GOTELNET_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("GOTELNET_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("GOTELNET_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	if v := os.Getenv("GOTELNET_WS"); v != "" {
		cfg.WebSocketURL = v
	}

	// Output
	if v := envInt("GOTELNET_VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("GOTELNET_STATS") {
		cfg.Stats = true
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, true
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
