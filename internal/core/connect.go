package core

import (
	"context"
	"fmt"
	"io"
	"os"

	"gotelnet/internal/capability"
	"gotelnet/internal/metrics"
	"gotelnet/internal/session"
	"gotelnet/internal/transport"
	"gotelnet/telnet"
	"gotelnet/util"
)

// ConnectMode dials the peer, sets up a TELNET session that refuses
// every option, and runs a capability on it.
type ConnectMode struct {
	Dialer     transport.Dialer
	Capability capability.Capability
	Address    string
	Session    session.Options
	Logger     *util.Logger
	Metrics    *metrics.Collector

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run dials, creates the session and hands it to the capability.  The
// connection and the dialer are closed when Run returns, and the
// connection as soon as ctx is done.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s", m.Address)

	conn, err := m.Dialer.Dial(ctx, "tcp", m.Address)
	if err != nil {
		m.Metrics.RecordError(err.Error())
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	defer conn.Close()

	// Consumption rounds poll without a context; closing the connection
	// is what ends a round early.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	sess := session.New(conn, m.stdin(), m.stdout(), m.Logger, m.Metrics, m.Session)
	sess.Decoder.Register(telnet.NoOption{})
	sess.Decoder.Register(&telnet.LogListener{Logger: m.Logger.Named("telnet")})

	if err := m.Capability.Handle(ctx, sess); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("session interrupted: %w (%v)", ctx.Err(), err)
		}
		m.Metrics.RecordError(err.Error())
		return err
	}
	return nil
}
