package telnet

import (
	tnerr "gotelnet/internal/errors"
)

// Listener is notified of every command a Decoder decodes.  A listener
// that acts on a command (for example by answering a negotiation
// request through d.Send) should Acknowledge it once done.  Returning an
// error aborts the read that triggered the dispatch.
//
// Listeners must be comparable (typically pointers); the order in which
// registered listeners are called is unspecified.
type Listener interface {
	OnCommand(d *Decoder, cmd Command) error
}

// Dispatcher owns the listener set and the queue of commands that have
// not been acknowledged yet.  Every Decoder has exactly one.
type Dispatcher struct {
	decoder   *Decoder
	listeners []Listener
	pending   []Command
}

// Register adds l to the listener set.  Registering twice is a no-op.
func (p *Dispatcher) Register(l Listener) {
	for _, x := range p.listeners {
		if x == l {
			return
		}
	}
	p.listeners = append(p.listeners, l)
}

// Unregister removes l from the listener set, if present.
func (p *Dispatcher) Unregister(l Listener) {
	for i, x := range p.listeners {
		if x == l {
			p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
			return
		}
	}
}

// Acknowledge removes cmd from the pending queue.  Acknowledging a
// command produced by another decoder fails with an *OwnershipError;
// acknowledging one that was already acknowledged does nothing.
func (p *Dispatcher) Acknowledge(cmd Command) error {
	if cmd.owner != p {
		return &tnerr.OwnershipError{Command: cmd}
	}
	for i, c := range p.pending {
		if c.seq == cmd.seq {
			p.pending = append(p.pending[:i:i], p.pending[i+1:]...)
			return nil
		}
	}
	return nil
}

// Pending returns a snapshot of the unacknowledged commands in decode
// order.
func (p *Dispatcher) Pending() []Command {
	out := make([]Command, len(p.pending))
	copy(out, p.pending)
	return out
}

// dispatch queues cmd and notifies every listener.  The listener slice
// is snapshotted so a listener may (un)register without disturbing the
// current round.
func (p *Dispatcher) dispatch(cmd Command) error {
	p.pending = append(p.pending, cmd)

	ls := make([]Listener, len(p.listeners))
	copy(ls, p.listeners)
	for _, l := range ls {
		if err := l.OnCommand(p.decoder, cmd); err != nil {
			return &tnerr.DispatchError{Command: cmd, Err: err}
		}
	}
	return nil
}
