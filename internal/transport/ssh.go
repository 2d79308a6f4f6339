package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	tnerr "gotelnet/internal/errors"
	"gotelnet/util"
)

// GatewayConfig describes an SSH server through which the TELNET peer
// is reached (a bastion in front of lab routers, say).
type GatewayConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	Timeout       time.Duration
}

func (c *GatewayConfig) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SSHDialer opens TCP streams through an SSH gateway with
// ssh.Client.Dial.  The SSH connection is made lazily on the first
// Dial and shared by later ones.
type SSHDialer struct {
	cfg    *GatewayConfig
	logger *util.Logger

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHDialer returns a dialer for the given gateway.
func NewSSHDialer(cfg *GatewayConfig, logger *util.Logger) *SSHDialer {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SSHDialer{cfg: cfg, logger: logger}
}

// Dial forwards a connection to address through the gateway.
//
// SSH channels do not support read deadlines; the telnet decoder
// notices and pumps such connections instead of probing them.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	client, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	d.logger.Debug("gateway: forwarding to %s %s", network, address)
	conn, err := client.Dial(network, address)
	if err != nil {
		return nil, tnerr.WrapSSH("forward", d.cfg.Host, d.cfg.Port,
			fmt.Errorf("%s: %w", address, err))
	}
	return conn, nil
}

// Close shuts down the SSH connection, if one was made.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

func (d *SSHDialer) connect(ctx context.Context) (*ssh.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return d.client, nil
	}

	auth, err := authMethods(d.cfg)
	if err != nil {
		return nil, tnerr.WrapSSH("auth", d.cfg.Host, d.cfg.Port, err)
	}
	hostKey, err := hostKeyCallback(d.cfg)
	if err != nil {
		return nil, tnerr.WrapSSH("hostkey", d.cfg.Host, d.cfg.Port, err)
	}

	addr := d.cfg.addr()
	d.logger.Verbose("gateway: connecting to %s as %s", addr, d.cfg.User)

	var nd net.Dialer
	dctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()
	tcpConn, err := nd.DialContext(dctx, "tcp", addr)
	if err != nil {
		return nil, tnerr.Wrap("dial", addr, err)
	}

	// ClientConfig.Timeout only bounds ssh.Dial's own connect; the
	// handshake on an existing conn needs a deadline of its own.
	deadline, _ := dctx.Deadline()
	tcpConn.SetDeadline(deadline) //nolint:errcheck
	expired := make(chan struct{})
	stop := context.AfterFunc(dctx, func() {
		tcpConn.SetDeadline(time.Unix(1, 0)) //nolint:errcheck
		close(expired)
	})

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, &ssh.ClientConfig{
		User:            d.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         d.cfg.Timeout,
	})
	if !stop() {
		<-expired
	}
	if err != nil {
		tcpConn.Close()
		if ctx.Err() != nil {
			return nil, tnerr.WrapSSH("handshake", d.cfg.Host, d.cfg.Port, ctx.Err())
		}
		return nil, tnerr.WrapSSH("handshake", d.cfg.Host, d.cfg.Port, classifyHandshake(err))
	}
	tcpConn.SetDeadline(time.Time{}) //nolint:errcheck

	d.client = ssh.NewClient(sshConn, chans, reqs)
	d.logger.Verbose("gateway: connected")
	return d.client, nil
}

// classifyHandshake tags handshake failures the user can act on.
func classifyHandshake(err error) error {
	var ke *knownhosts.KeyError
	msg := err.Error()
	switch {
	case errors.As(err, &ke), strings.Contains(msg, "knownhosts: "):
		return fmt.Errorf("%w: %v", tnerr.ErrHostKeyMismatch, err)
	case strings.Contains(msg, "unable to authenticate"):
		return fmt.Errorf("%w: %v", tnerr.ErrAuthFailed, err)
	}
	return err
}
