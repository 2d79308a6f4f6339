// Package config defines the runtime configuration for gotelnet and
// provides helpers for parsing gateway specifications and ports.
package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	tnerr "gotelnet/internal/errors"
)

// Config holds every tuneable for a single gotelnet session.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host    string
	Port    int
	Timeout time.Duration // dial timeout
	Retries int

	// ── Consumption ──────────────────────────────────────────────────
	ConsumeTimeout time.Duration
	PollInterval   time.Duration
	BannerDrain    time.Duration

	// ── Login ────────────────────────────────────────────────────────
	User           string
	Password       string // from GOTELNET_PASSWORD; never a flag value
	PromptPassword bool   // true → read the password from the terminal
	LoginPrompt    string
	PasswordPrompt string
	ShellPrompt    string
	FailureText    string

	// ── Script ───────────────────────────────────────────────────────
	Commands    []string // sent one by one after login
	Expect      string   // optional pattern that ends each command's output
	Interactive bool     // hand the session to the terminal afterwards
	RawTerminal bool     // raw local terminal while interactive

	// ── SSH gateway ──────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── WebSocket bridge ─────────────────────────────────────────────
	WebSocketURL string // ws[s]:// endpoint bridging to the TELNET port

	// ── Output ───────────────────────────────────────────────────────
	SessionFile string
	Verbose     int
	Stats       bool
	DryRun      bool
}

// Defaults returns a Config populated from defaults.go.
func Defaults() *Config {
	return &Config{
		Port:           DefaultTelnetPort,
		Timeout:        DefaultConnTimeout,
		Retries:        DefaultRetries,
		ConsumeTimeout: DefaultConsumeTimeout,
		PollInterval:   DefaultPollInterval,
		BannerDrain:    DefaultBannerDrain,
		LoginPrompt:    DefaultLoginPrompt,
		PasswordPrompt: DefaultPasswordPrompt,
		ShellPrompt:    DefaultShellPrompt,
		FailureText:    DefaultFailureText,
	}
}

// LoginEnabled reports whether a login script should run.
func (c *Config) LoginEnabled() bool { return c.User != "" }

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Gateway-spec parser ──────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid gateway spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = ParsePort(m[3])
		if err != nil {
			return "", "", 0, fmt.Errorf("gateway: %w", err)
		}
	}
	return user, host, port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Host == "" {
		return &tnerr.ConfigError{
			Field:   "host",
			Message: "remote host is required",
			Hint:    "gotelnet [options] <host> [port]",
		}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &tnerr.ConfigError{Field: "port", Value: c.Port, Message: "out of range 1-65535"}
	}
	if c.PollInterval <= 0 {
		return &tnerr.ConfigError{Field: "poll", Value: c.PollInterval, Message: "must be positive"}
	}
	if c.ConsumeTimeout < 0 {
		return &tnerr.ConfigError{
			Field:   "consume-timeout",
			Value:   c.ConsumeTimeout,
			Message: "must not be negative",
			Hint:    "use 0 to wait forever",
		}
	}
	if c.ConsumeTimeout > 0 && c.ConsumeTimeout < c.PollInterval {
		return &tnerr.ConfigError{
			Field:   "consume-timeout",
			Value:   c.ConsumeTimeout,
			Message: fmt.Sprintf("shorter than the poll interval (%s)", c.PollInterval),
		}
	}
	if c.Retries < 0 {
		return &tnerr.ConfigError{Field: "retries", Value: c.Retries, Message: "must not be negative"}
	}

	if c.PromptPassword && c.User == "" {
		return &tnerr.ConfigError{
			Field:   "password",
			Message: "a password needs a user to log in as",
			Hint:    "add --user <name>",
		}
	}
	if c.LoginEnabled() {
		for field, v := range map[string]string{
			"login-prompt":    c.LoginPrompt,
			"password-prompt": c.PasswordPrompt,
			"shell-prompt":    c.ShellPrompt,
			"fail":            c.FailureText,
		} {
			if v == "" {
				return &tnerr.ConfigError{Field: field, Message: "must not be empty when --user is set"}
			}
		}
	}
	if len(c.Commands) > 0 && c.ShellPrompt == "" && c.Expect == "" {
		return &tnerr.ConfigError{
			Field:   "send",
			Message: "commands need a prompt to know when their output ends",
			Hint:    "set --shell-prompt or --expect",
		}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &tnerr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: "gateway host is required"}
	}
	if c.WebSocketURL != "" {
		if c.TunnelEnabled {
			return &tnerr.ConfigError{Field: "ws", Message: "cannot be combined with --tunnel"}
		}
		u, err := url.Parse(c.WebSocketURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			return &tnerr.ConfigError{
				Field:   "ws",
				Value:   c.WebSocketURL,
				Message: "not a websocket URL",
				Hint:    "ws://bridge:6080/telnet?target={host}:{port}",
			}
		}
	}
	return nil
}
