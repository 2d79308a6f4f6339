// Package cmd wires up the CLI flags and runs a gotelnet session.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"gotelnet/config"
	"gotelnet/internal/core"
	"gotelnet/internal/metrics"
	"gotelnet/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X gotelnet/cmd.version=1.1.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs a session against the named host.
func Execute(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := config.Defaults()
	if path := sessionFile(args); path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return err
		}
	}
	config.LoadFromEnv(cfg)
	envVerbose := cfg.Verbose

	fs := flag.NewFlagSet("gotelnet", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── connection ───────────────────────────────────────────────
	fs.DurationVarP(&cfg.Timeout, "timeout", "w", cfg.Timeout, "Dial timeout (peer and gateway)")
	fs.IntVar(&cfg.Retries, "retries", cfg.Retries, "Retries for refused or timed-out dials")

	// ── consumption ──────────────────────────────────────────────
	fs.DurationVarP(&cfg.ConsumeTimeout, "consume-timeout", "t", cfg.ConsumeTimeout, "Give up waiting after this much silence (0 = never)")
	fs.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "Pause between two polls of the connection")
	fs.DurationVar(&cfg.BannerDrain, "drain", cfg.BannerDrain, "Keep reading this long after login")

	// ── login ────────────────────────────────────────────────────
	fs.StringVarP(&cfg.User, "user", "u", cfg.User, "Log in as this user")
	fs.BoolVar(&cfg.PromptPassword, "password", false, "Prompt for the login password")
	fs.StringVar(&cfg.LoginPrompt, "login-prompt", cfg.LoginPrompt, "Text that marks the login prompt")
	fs.StringVar(&cfg.PasswordPrompt, "password-prompt", cfg.PasswordPrompt, "Text that marks the password prompt")
	fs.StringVar(&cfg.ShellPrompt, "shell-prompt", cfg.ShellPrompt, "Text the shell prompt ends with")
	fs.StringVar(&cfg.FailureText, "fail", cfg.FailureText, "Text that means the login was rejected")

	// ── script ───────────────────────────────────────────────────
	fs.StringArrayVarP(&cfg.Commands, "send", "e", cfg.Commands, "Command to run after login (repeatable)")
	fs.StringVar(&cfg.Expect, "expect", cfg.Expect, "Regular expression each command's output ends with")
	fs.BoolVarP(&cfg.Interactive, "interactive", "i", cfg.Interactive, "Hand the session to the terminal after the script")
	fs.BoolVar(&cfg.RawTerminal, "raw", cfg.RawTerminal, "Raw local terminal while interactive")

	// ── SSH gateway ──────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach the host through SSH gateway [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── websocket bridge ─────────────────────────────────────────
	fs.StringVar(&cfg.WebSocketURL, "ws", cfg.WebSocketURL, "Reach the host through a websocket bridge ({host} and {port} are expanded)")

	// ── output ───────────────────────────────────────────────────
	fs.StringVarP(&cfg.SessionFile, "file", "f", "", "Load a YAML session file (flags and environment override it)")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print session metrics as JSON on exit")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate and print the session plan without connecting")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(stderr, fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showHelp || len(args) == 0 {
		printUsage(stderr, fs)
		return nil
	}
	if showVersion {
		fmt.Fprintf(stdout, "gotelnet %s\n", version)
		return nil
	}
	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}

	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	if cfg.TunnelSpec != "" {
		user, host, port, err := config.ParseTunnelSpec(cfg.TunnelSpec)
		if err != nil {
			return err
		}
		cfg.TunnelEnabled = true
		cfg.TunnelUser = user
		cfg.TunnelHost = host
		cfg.TunnelPort = port
		if cfg.TunnelUser == "" {
			cfg.TunnelUser = currentUser()
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DryRun {
		printPlan(stdout, cfg)
		return nil
	}

	if cfg.PromptPassword {
		pass, err := util.PromptSecret(fmt.Sprintf("Password for %s@%s: ", cfg.User, cfg.Host))
		if err != nil {
			return err
		}
		cfg.Password = pass
	}

	// ── run ──────────────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)
	logger.SetOutput(stderr)

	var m *metrics.Collector
	if cfg.Stats {
		m = metrics.New()
		defer func() { fmt.Fprintln(stderr, m.JSON()) }()
	}

	mode, err := core.Build(cfg, logger, m)
	if err != nil {
		return err
	}
	if cm, ok := mode.(*core.ConnectMode); ok {
		cm.Stdin, cm.Stdout = stdin, stdout
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// sessionFile finds -f/--file ahead of the real parse, since the file
// has to be applied before the environment and the flags.
func sessionFile(args []string) string {
	pre := flag.NewFlagSet("gotelnet", flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	pre.ParseErrorsWhitelist.UnknownFlags = true
	path := pre.StringP("file", "f", "", "")
	pre.Parse(args) //nolint:errcheck
	return *path
}

// parsePositional accepts "<host> [port]".  The host may be left out
// when a session file names it.
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
		if cfg.Host != "" {
			return nil
		}
		return fmt.Errorf("hostname required (use --help for usage)")
	case 1:
	case 2:
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments: %s", strings.Join(remaining[2:], " "))
	}
	cfg.Host = remaining[0]
	return nil
}

func currentUser() string {
	for _, k := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return "root"
}

// printPlan describes what a run with cfg would do.
func printPlan(w io.Writer, cfg *config.Config) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "target\t%s\n", util.FormatAddr(cfg.Host, cfg.Port))
	if cfg.TunnelEnabled {
		fmt.Fprintf(tw, "gateway\t%s@%s\n", cfg.TunnelUser, util.FormatAddr(cfg.TunnelHost, cfg.TunnelPort))
	}
	if cfg.WebSocketURL != "" {
		fmt.Fprintf(tw, "bridge\t%s\n", cfg.WebSocketURL)
	}
	fmt.Fprintf(tw, "dial\ttimeout %s, %d retries\n", cfg.Timeout, cfg.Retries)
	fmt.Fprintf(tw, "consume\ttimeout %s, poll %s\n", cfg.ConsumeTimeout, cfg.PollInterval)
	if cfg.LoginEnabled() {
		fmt.Fprintf(tw, "login\t%s at %q, password at %q, shell %q, failure %q\n",
			cfg.User, cfg.LoginPrompt, cfg.PasswordPrompt, cfg.ShellPrompt, cfg.FailureText)
	}
	for i, c := range cfg.Commands {
		fmt.Fprintf(tw, "send %d\t%s\n", i+1, c)
	}
	if cfg.Interactive || (!cfg.LoginEnabled() && len(cfg.Commands) == 0) {
		fmt.Fprintf(tw, "then\tinteractive\n")
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintf(w, `gotelnet – scriptable TELNET client v%s

Refuses every TELNET option (plain NVT), logs in, runs commands and
waits for prompts, or hands the session to the terminal.

Usage:
  gotelnet [options] <host> [port]

Options:
`, version)
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Examples:
  gotelnet router.lab                                   Interactive session
  gotelnet -u admin --password -e "show ver" sw1        Log in, run a command
  gotelnet -e "show int" --expect '[#>] ' 10.0.0.1 2323  Script against a prompt
  gotelnet -T ops@bastion -u admin --password core1     Through an SSH gateway
  gotelnet --ws 'wss://kvm/console?to={host}:{port}' vm7  Through a websocket bridge
  gotelnet -f core1.yaml                                Host and script from a file

Environment:
  GOTELNET_PASSWORD, GOTELNET_USER, GOTELNET_TIMEOUT, GOTELNET_TUNNEL, GOTELNET_WS, ...
`)
}
