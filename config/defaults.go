package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags and environment variable loading.

const (
	// DefaultTelnetPort is the well-known TELNET port.
	DefaultTelnetPort = 23

	// DefaultSSHPort is the standard SSH port for gateways.
	DefaultSSHPort = 22

	// DefaultConnTimeout bounds dialing the peer (and the SSH gateway).
	DefaultConnTimeout = 30 * time.Second

	// DefaultConsumeTimeout is how long a consumption round may go
	// without receiving anything.
	DefaultConsumeTimeout = 30 * time.Second

	// DefaultPollInterval is the pause between two polls of the
	// decoded stream.
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultBannerDrain is how long to keep reading after a
	// successful login before the first command is sent.
	DefaultBannerDrain = 2 * time.Second

	// DefaultRetries is how many times a refused or timed-out dial is
	// retried.
	DefaultRetries = 3

	// DefaultLoginPrompt, DefaultPasswordPrompt and DefaultShellPrompt
	// are matched as plain substrings.  The leading letter is left off
	// so "Login:" and "login:" both match.
	DefaultLoginPrompt    = "ogin:"
	DefaultPasswordPrompt = "assword:"
	DefaultShellPrompt    = "$ "

	// DefaultFailureText is what most telnetd/login(1) builds print
	// after a rejected password ("Login incorrect").
	DefaultFailureText = "incorrect"
)
