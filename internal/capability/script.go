package capability

import (
	"context"
	"fmt"

	"gotelnet/expect"
	"gotelnet/internal/session"
)

// Script sends each command in turn and prints its output up to the
// next prompt.  The end of the output is Prompt as a suffix, or, when
// Expect is set, the regular expression Expect at the end of the text.
type Script struct {
	Commands []string
	Prompt   string
	Expect   string

	// WaitPrompt consumes up to the first prompt before sending
	// anything.  Set it when no login ran first.
	WaitPrompt bool
}

func (s *Script) criterion() (expect.Criterion, error) {
	if s.Expect == "" {
		return expect.HasSuffix(s.Prompt), nil
	}
	return expect.Pattern(".*(?:"+s.Expect+")", true)
}

// Handle implements [Capability].
func (s *Script) Handle(ctx context.Context, sess *session.Session) error {
	crit, err := s.criterion()
	if err != nil {
		return fmt.Errorf("prompt pattern: %w", err)
	}
	log := sess.Logger.Named("script")

	if s.WaitPrompt {
		text, err := sess.Consumer.Until(crit)
		sess.Show(text)
		if err != nil {
			return fmt.Errorf("waiting for prompt: %w", err)
		}
	}

	for i, cmd := range s.Commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Verbose("step %d/%d: %s", i+1, len(s.Commands), cmd)
		if err := sess.SendLine(cmd); err != nil {
			return fmt.Errorf("send %q: %w", cmd, err)
		}
		text, err := sess.Consumer.Until(crit)
		sess.Show(text)
		if err != nil {
			return fmt.Errorf("command %q: %w", cmd, err)
		}
	}
	return nil
}
