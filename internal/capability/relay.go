package capability

import (
	"context"
	"os"

	"gotelnet/internal/session"
	"gotelnet/util"
)

// Relay hands the session to the local terminal: decoded remote output
// goes to stdout, stdin goes to the peer with IAC bytes escaped.
type Relay struct {
	// Raw puts stdin into raw mode for the duration of the relay when
	// it is a terminal, so keystrokes reach the peer unbuffered.
	Raw bool
}

// Handle implements [Capability].
func (r *Relay) Handle(ctx context.Context, sess *session.Session) error {
	if f, ok := sess.Stdin.(*os.File); ok && r.Raw {
		restore, err := util.MakeRaw(f)
		if err != nil {
			sess.Logger.Debug("stdin stays cooked: %v", err)
		}
		defer restore()
	}
	return util.Relay(ctx, sess.Conn, sess.Decoder, sess.Stdin, sess.Stdout)
}
