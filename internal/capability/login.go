package capability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gotelnet/expect"
	tnerr "gotelnet/internal/errors"
	"gotelnet/internal/session"
)

// Login answers the classic login(1) dialogue: user name at the login
// prompt, password at the password prompt, then waits for either the
// shell prompt or the failure text.
type Login struct {
	User     string
	Password string

	LoginPrompt    string
	PasswordPrompt string
	ShellPrompt    string
	FailureText    string

	// BannerDrain keeps reading (and printing) for this long once the
	// shell prompt showed up.  Zero skips the drain.
	BannerDrain time.Duration
}

// Handle implements [Capability].
func (l *Login) Handle(ctx context.Context, sess *session.Session) error {
	log := sess.Logger.Named("login")
	c := sess.Consumer

	text, err := c.UntilContains(l.LoginPrompt)
	sess.Show(text)
	if err != nil {
		return fmt.Errorf("waiting for login prompt: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sess.SendLine(l.User); err != nil {
		return fmt.Errorf("send user: %w", err)
	}
	log.Verbose("sent user %q", l.User)

	text, err = c.UntilContains(l.PasswordPrompt)
	sess.Show(text)
	if err != nil {
		return fmt.Errorf("waiting for password prompt: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := sess.SendLine(l.Password); err != nil {
		return fmt.Errorf("send password: %w", err)
	}
	log.Verbose("sent password")

	outcome, text, err := c.UntilEither(l.ShellPrompt, l.FailureText)
	sess.Show(text)
	if err != nil {
		return fmt.Errorf("waiting for shell prompt: %w", err)
	}
	if outcome == expect.Failure {
		return fmt.Errorf("%w for user %q", tnerr.ErrLoginRejected, l.User)
	}
	log.Info("logged in as %s", l.User)

	if l.BannerDrain <= 0 {
		return nil
	}
	text, err = c.For(l.BannerDrain)
	sess.Show(text)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("drain banner: %w", err)
	}
	return nil
}
