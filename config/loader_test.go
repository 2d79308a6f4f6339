package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Port(t *testing.T) {
	t.Setenv("GOTELNET_PORT", "2323")
	cfg := Defaults()
	LoadFromEnv(cfg)
	if cfg.Port != 2323 {
		t.Errorf("Port = %d, want 2323", cfg.Port)
	}
}

func TestLoadFromEnv_Durations(t *testing.T) {
	tests := []struct {
		key   string
		value string
		get   func(*Config) time.Duration
		want  time.Duration
	}{
		{"GOTELNET_TIMEOUT", "5", func(c *Config) time.Duration { return c.Timeout }, 5 * time.Second},
		{"GOTELNET_CONSUME_TIMEOUT", "1500ms", func(c *Config) time.Duration { return c.ConsumeTimeout }, 1500 * time.Millisecond},
		{"GOTELNET_POLL", "20ms", func(c *Config) time.Duration { return c.PollInterval }, 20 * time.Millisecond},
		{"GOTELNET_DRAIN", "0", func(c *Config) time.Duration { return c.BannerDrain }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			cfg := Defaults()
			LoadFromEnv(cfg)
			if got := tt.get(cfg); got != tt.want {
				t.Errorf("%s=%s → %s, want %s", tt.key, tt.value, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnv_BadDurationIgnored(t *testing.T) {
	t.Setenv("GOTELNET_CONSUME_TIMEOUT", "soon")
	cfg := Defaults()
	LoadFromEnv(cfg)
	if cfg.ConsumeTimeout != DefaultConsumeTimeout {
		t.Errorf("ConsumeTimeout = %s, want default", cfg.ConsumeTimeout)
	}
}

func TestLoadFromEnv_Login(t *testing.T) {
	t.Setenv("GOTELNET_USER", "admin")
	t.Setenv("GOTELNET_PASSWORD", "s3cret")
	t.Setenv("GOTELNET_SHELL_PROMPT", "# ")
	cfg := Defaults()
	LoadFromEnv(cfg)
	if cfg.User != "admin" || cfg.Password != "s3cret" || cfg.ShellPrompt != "# " {
		t.Errorf("got user=%q password=%q prompt=%q", cfg.User, cfg.Password, cfg.ShellPrompt)
	}
}

func TestLoadFromEnv_Booleans(t *testing.T) {
	for _, v := range []string{"1", "true", "yes", "TRUE", "Yes"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("GOTELNET_SSH_AGENT", v)
			t.Setenv("GOTELNET_STATS", v)
			cfg := Defaults()
			LoadFromEnv(cfg)
			if !cfg.UseSSHAgent || !cfg.Stats {
				t.Errorf("agent=%v stats=%v, want both true", cfg.UseSSHAgent, cfg.Stats)
			}
		})
	}
}

func TestLoadFromEnv_EmptyLeavesDefaults(t *testing.T) {
	cfg := Defaults()
	LoadFromEnv(cfg)
	if cfg.Port != DefaultTelnetPort || cfg.Retries != DefaultRetries || cfg.User != "" {
		t.Errorf("defaults changed: %+v", cfg)
	}
}
