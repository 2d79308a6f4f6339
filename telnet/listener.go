package telnet

import (
	"sync"

	"gotelnet/util"
)

// NoOption refuses every option the peer offers or requests: DO is
// answered with WONT and WILL with DONT, which keeps the connection in
// plain network-virtual-terminal mode.  Other commands are left pending
// for whoever else is interested.
type NoOption struct{}

// OnCommand implements [Listener].
func (NoOption) OnCommand(d *Decoder, cmd Command) error {
	opt, _ := cmd.Option()
	switch cmd.Code() {
	case DO:
		if err := d.Send(WONT, opt); err != nil {
			return err
		}
	case WILL:
		if err := d.Send(DONT, opt); err != nil {
			return err
		}
	default:
		return nil
	}
	return d.Acknowledge(cmd)
}

// Recorder keeps every command it is notified of.  It never
// acknowledges anything.
type Recorder struct {
	mu   sync.Mutex
	cmds []Command
}

// OnCommand implements [Listener].
func (r *Recorder) OnCommand(_ *Decoder, cmd Command) error {
	r.mu.Lock()
	r.cmds = append(r.cmds, cmd)
	r.mu.Unlock()
	return nil
}

// Commands returns a copy of the recorded commands in arrival order.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.cmds))
	copy(out, r.cmds)
	return out
}

// LogListener logs each command at verbose level and acknowledges every
// command except the requests (DO, WILL) a negotiation policy answers.
type LogListener struct {
	Logger *util.Logger
}

// OnCommand implements [Listener].
func (l *LogListener) OnCommand(d *Decoder, cmd Command) error {
	l.Logger.Verbose("peer sent %s", cmd)
	if c := cmd.Code(); c == DO || c == WILL {
		return nil
	}
	return d.Acknowledge(cmd)
}
