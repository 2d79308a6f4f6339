package expect

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single pattern match.  Backtracking
// patterns can otherwise stall a round on hostile input.
const DefaultMatchTimeout = 250 * time.Millisecond

type contains struct{ s string }

// Contains holds once the round's text contains s anywhere.
func Contains(s string) Criterion { return &contains{s: s} }

func (c *contains) Evaluate(r *Round) Verdict {
	return Verdict{Holds: strings.Contains(r.Text(), c.s)}
}

func (c *contains) String() string { return fmt.Sprintf("contains(%q)", c.s) }

type suffix struct{ s string }

// HasSuffix holds when the round's text currently ends with s.
func HasSuffix(s string) Criterion { return &suffix{s: s} }

func (c *suffix) Evaluate(r *Round) Verdict {
	return Verdict{Holds: strings.HasSuffix(r.Text(), c.s)}
}

func (c *suffix) String() string { return fmt.Sprintf("suffix(%q)", c.s) }

type pattern struct {
	expr     string
	anchored bool
	re       *regexp2.Regexp
}

// Pattern holds when expr matches a prefix of the round's text.  With
// anchored set the match must also extend to the end of the text.
//
// The expression uses the .NET/Java style syntax of regexp2 (lookaround
// and backreferences are available) and is compiled in single-line mode,
// so '.' also matches newlines; prefix it with (?-s) to opt out.
func Pattern(expr string, anchored bool) (Criterion, error) {
	src := `\A(?:` + expr + `)`
	if anchored {
		src += `\z`
	}
	re, err := regexp2.Compile(src, regexp2.Singleline)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", expr, err)
	}
	re.MatchTimeout = DefaultMatchTimeout
	return &pattern{expr: expr, anchored: anchored, re: re}, nil
}

// MustPattern is like Pattern but panics on a bad expression.
func MustPattern(expr string, anchored bool) Criterion {
	c, err := Pattern(expr, anchored)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *pattern) Evaluate(r *Round) Verdict {
	ok, err := c.re.MatchString(r.Text())
	// A match that times out counts as no match; the next poll retries.
	return Verdict{Holds: ok && err == nil}
}

func (c *pattern) String() string {
	if c.anchored {
		return fmt.Sprintf("matches(%q)", c.expr)
	}
	return fmt.Sprintf("prefix(%q)", c.expr)
}
