// Package session represents one TELNET connection lifecycle: the
// network connection, the decoder reading it, the consumer polling the
// decoder, and the local I/O endpoints.
//
// Capabilities work on a Session rather than a raw net.Conn, so they do
// not care whether the bytes come from a gateway channel or a test
// listener, or whether output goes to a terminal or a buffer.
package session

import (
	"io"
	"net"
	"time"

	"gotelnet/expect"
	"gotelnet/internal/metrics"
	"gotelnet/telnet"
	"gotelnet/util"
)

// Options tunes the consumer bound to a new Session.  A zero
// ConsumeTimeout waits forever; a zero PollInterval keeps
// expect.DefaultGranularity.
type Options struct {
	ConsumeTimeout time.Duration
	PollInterval   time.Duration
}

// Session encapsulates the runtime context for a single connection.
type Session struct {
	Conn     net.Conn
	Decoder  *telnet.Decoder
	Consumer *expect.Consumer
	Stdin    io.Reader
	Stdout   io.Writer
	Logger   *util.Logger
	Metrics  *metrics.Collector
}

// New binds conn to a fresh decoder (replies go back over conn) and a
// consumer polling that decoder.  No listeners are registered; the
// caller decides the negotiation policy.
func New(conn net.Conn, stdin io.Reader, stdout io.Writer, logger *util.Logger, m *metrics.Collector, opts Options) *Session {
	d := telnet.NewDecoder(conn, conn)
	d.SetLogger(logger.Named("telnet"))
	d.SetMetrics(m)

	c := expect.NewConsumer(d)
	c.SetLogger(logger.Named("expect"))
	c.SetMetrics(m)
	c.SetTimeout(opts.ConsumeTimeout)
	c.SetGranularity(opts.PollInterval)

	return &Session{
		Conn:     conn,
		Decoder:  d,
		Consumer: c,
		Stdin:    stdin,
		Stdout:   stdout,
		Logger:   logger,
		Metrics:  m,
	}
}

// SendLine writes line followed by the NVT end-of-line (CR LF).  Data
// bytes equal to IAC are doubled by the decoder.
func (s *Session) SendLine(line string) error {
	_, err := s.Decoder.Write([]byte(line + "\r\n"))
	return err
}

// Show copies received text to the session's output.
func (s *Session) Show(text string) {
	if text == "" || s.Stdout == nil {
		return
	}
	io.WriteString(s.Stdout, text) //nolint:errcheck
}
