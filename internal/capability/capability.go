// Package capability defines what happens over an established TELNET
// session.  Each Capability encapsulates a single behaviour (log in,
// run a list of commands, hand the session to the terminal) and
// operates on a Session rather than a raw net.Conn, which keeps
// capabilities testable and decoupled from transport details.
package capability

import (
	"context"

	"gotelnet/internal/session"
)

// Capability handles a session according to a specific behaviour.
type Capability interface {
	// Handle runs the capability against the given session.  It
	// blocks until the behaviour is complete, the peer hangs up or
	// the context is cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}

// Chain runs capabilities in order and stops at the first error.
type Chain []Capability

// Handle implements [Capability].
func (c Chain) Handle(ctx context.Context, sess *session.Session) error {
	for _, capab := range c {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := capab.Handle(ctx, sess); err != nil {
			return err
		}
	}
	return nil
}
