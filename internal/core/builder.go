package core

import (
	"fmt"

	"gotelnet/config"
	"gotelnet/expect"
	"gotelnet/internal/capability"
	"gotelnet/internal/metrics"
	"gotelnet/internal/retry"
	"gotelnet/internal/session"
	"gotelnet/internal/transport"
	"gotelnet/util"
)

// Build constructs the Mode described by cfg.  cfg is expected to have
// passed Validate.
func Build(cfg *config.Config, logger *util.Logger, m *metrics.Collector) (Mode, error) {
	capab, err := buildCapability(cfg)
	if err != nil {
		return nil, err
	}
	return &ConnectMode{
		Dialer:     buildDialer(cfg, logger, m),
		Capability: capab,
		Address:    util.FormatAddr(cfg.Host, cfg.Port),
		Session: session.Options{
			ConsumeTimeout: cfg.ConsumeTimeout,
			PollInterval:   cfg.PollInterval,
		},
		Logger:  logger,
		Metrics: m,
	}, nil
}

// buildDialer picks a direct, gateway or websocket dialer and wraps it
// with the retry schedule.
func buildDialer(cfg *config.Config, logger *util.Logger, m *metrics.Collector) transport.Dialer {
	var inner transport.Dialer = &transport.TCPDialer{Timeout: cfg.Timeout}
	switch {
	case cfg.WebSocketURL != "":
		inner = transport.NewWebSocketDialer(cfg.WebSocketURL, cfg.Timeout, logger.Named("ws"))
	case cfg.TunnelEnabled:
		inner = transport.NewSSHDialer(&transport.GatewayConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			Timeout:       cfg.Timeout,
		}, logger.Named("gateway"))
	}

	return &transport.RetryingDialer{
		Inner:   inner,
		Backoff: retry.ForRetries(cfg.Retries),
		Logger:  logger,
		Metrics: m,
	}
}

// buildCapability chains login, script and interactive relay as the
// configuration asks.  With none of them requested the session is
// relayed, which makes plain "gotelnet host" an interactive client.
func buildCapability(cfg *config.Config) (capability.Capability, error) {
	if cfg.Expect != "" {
		if _, err := expect.Pattern(cfg.Expect, false); err != nil {
			return nil, fmt.Errorf("--expect: %w", err)
		}
	}

	var chain capability.Chain
	if cfg.LoginEnabled() {
		chain = append(chain, &capability.Login{
			User:           cfg.User,
			Password:       cfg.Password,
			LoginPrompt:    cfg.LoginPrompt,
			PasswordPrompt: cfg.PasswordPrompt,
			ShellPrompt:    cfg.ShellPrompt,
			FailureText:    cfg.FailureText,
			BannerDrain:    cfg.BannerDrain,
		})
	}
	if len(cfg.Commands) > 0 {
		chain = append(chain, &capability.Script{
			Commands:   cfg.Commands,
			Prompt:     cfg.ShellPrompt,
			Expect:     cfg.Expect,
			WaitPrompt: !cfg.LoginEnabled(),
		})
	}
	if cfg.Interactive || len(chain) == 0 {
		// Refusing ECHO leaves echoing to the local line discipline,
		// so the terminal only goes raw on request.
		chain = append(chain, &capability.Relay{Raw: cfg.RawTerminal})
	}

	if len(chain) == 1 {
		return chain[0], nil
	}
	return chain, nil
}
