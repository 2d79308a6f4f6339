package expect

import (
	"fmt"
	"time"

	tnerr "gotelnet/internal/errors"
	"gotelnet/internal/metrics"
	"gotelnet/util"
)

// DefaultGranularity is the pause between two polls of the source.
const DefaultGranularity = 10 * time.Millisecond

// Source yields decoded data without blocking on ordinary input.
// *telnet.Decoder implements it.
type Source interface {
	ReadAvailable(p []byte) (int, error)
}

// Consumer polls a Source and accumulates what it yields until a
// criterion holds or the overall timeout expires.  It is not safe for
// concurrent use.
type Consumer struct {
	src         Source
	granularity time.Duration
	timeout     time.Duration
	scratch     []byte

	logger  *util.Logger
	metrics *metrics.Collector
}

// NewConsumer returns a Consumer with no timeout and the default poll
// granularity.
func NewConsumer(src Source) *Consumer {
	return &Consumer{
		src:         src,
		granularity: DefaultGranularity,
		scratch:     make([]byte, 4096),
	}
}

// SetTimeout sets how long a round may go without receiving anything
// before it fails.  Zero waits forever.
func (c *Consumer) SetTimeout(d time.Duration) { c.timeout = d }

// Timeout returns the overall timeout.
func (c *Consumer) Timeout() time.Duration { return c.timeout }

// SetGranularity sets the pause between polls.
func (c *Consumer) SetGranularity(d time.Duration) {
	if d > 0 {
		c.granularity = d
	}
}

// SetLogger attaches a logger.
func (c *Consumer) SetLogger(l *util.Logger) { c.logger = l }

// SetMetrics attaches a metrics collector.
func (c *Consumer) SetMetrics(m *metrics.Collector) { c.metrics = m }

// Result is what a finished round produced.
type Result struct {
	Text    string
	Verdict Verdict
	Elapsed time.Duration
}

// Until consumes until crit holds and returns the accumulated text.
func (c *Consumer) Until(crit Criterion) (string, error) {
	res, err := c.Run(crit)
	return res.Text, err
}

// Run consumes until crit holds and also returns the final verdict.
//
// A round that receives nothing for longer than the timeout fails with
// a *TimeoutError carrying the partial text.  Source errors (end of
// stream, decode and listener failures) end the round immediately; the
// returned Result still holds the partial text.
func (c *Consumer) Run(crit Criterion) (Result, error) {
	return c.run(crit, c.timeout)
}

func (c *Consumer) run(crit Criterion, timeout time.Duration) (Result, error) {
	start := time.Now()
	r := NewRound(start)
	last := start

	c.logger.Debug("round: until %s", crit)

	for {
		time.Sleep(c.granularity)

		chunk, srcErr := c.drain()
		now := time.Now()
		r.Feed(chunk, now)
		if chunk != "" {
			last = now
			c.logger.Debug("round: received %q", chunk)
		}

		v := crit.Evaluate(r)
		if v.Holds {
			c.metrics.RoundFinished(false)
			c.logger.Verbose("round: %s held after %s", crit, now.Sub(start).Truncate(time.Millisecond))
			return Result{Text: r.Text(), Verdict: v, Elapsed: now.Sub(start)}, nil
		}

		if srcErr != nil {
			c.metrics.RoundFinished(false)
			c.metrics.RecordError(srcErr.Error())
			return Result{Text: r.Text(), Verdict: v, Elapsed: now.Sub(start)},
				fmt.Errorf("consume until %s: %w (received so far: %q)", crit, srcErr, r.Text())
		}

		if chunk == "" && timeout > 0 && now.Sub(last) > timeout {
			c.metrics.RoundFinished(true)
			return Result{Text: r.Text(), Verdict: v, Elapsed: now.Sub(start)},
				&tnerr.TimeoutError{Elapsed: now.Sub(last), Timeout: timeout, Partial: r.Text()}
		}
	}
}

// drain reads everything currently available.
func (c *Consumer) drain() (string, error) {
	var out []byte
	for {
		n, err := c.src.ReadAvailable(c.scratch)
		out = append(out, c.scratch[:n]...)
		if err != nil || n < len(c.scratch) {
			return string(out), err
		}
	}
}

// ── conveniences ─────────────────────────────────────────────────────

// UntilContains consumes until s appears anywhere in the round's text.
func (c *Consumer) UntilContains(s string) (string, error) {
	return c.Until(Contains(s))
}

// UntilSuffix consumes until the round's text ends with s.
func (c *Consumer) UntilSuffix(s string) (string, error) {
	return c.Until(HasSuffix(s))
}

// UntilAny consumes until one of strs appears and reports the index of
// the first one (in argument order) that did.
func (c *Consumer) UntilAny(strs ...string) (string, int, error) {
	ops := make([]Criterion, len(strs))
	for i, s := range strs {
		ops[i] = Contains(s)
	}
	res, err := c.Run(AnyOf(ops...))
	if err != nil {
		return res.Text, -1, err
	}
	first, _ := res.Verdict.FirstHolding()
	for i, op := range ops {
		if op == first {
			return res.Text, i, nil
		}
	}
	return res.Text, -1, &tnerr.ConsistencyError{
		Detail: fmt.Sprintf("any-of round ended with no holding operand: %q", res.Text),
	}
}

// UntilMatch consumes until expr matches the round's text (see Pattern).
func (c *Consumer) UntilMatch(expr string, anchored bool) (string, error) {
	crit, err := Pattern(expr, anchored)
	if err != nil {
		return "", err
	}
	return c.Until(crit)
}

// For consumes whatever arrives during d, regardless of content and of
// the overall timeout.  It is meant for draining banners and motd text.
func (c *Consumer) For(d time.Duration) (string, error) {
	res, err := c.run(Elapsed(d), 0)
	return res.Text, err
}

// Outcome tells which branch ended a two-way round.
type Outcome int

const (
	Success Outcome = iota + 1
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "none"
	}
}

// UntilEither consumes until success or failure appears.  When both are
// present in the same poll, success wins.
func (c *Consumer) UntilEither(success, failure string) (Outcome, string, error) {
	ok, bad := Contains(success), Contains(failure)
	res, err := c.Run(AnyOf(ok, bad))
	if err != nil {
		return 0, res.Text, err
	}
	switch {
	case res.Verdict.State(ok) == Holds:
		return Success, res.Text, nil
	case res.Verdict.State(bad) == Holds:
		return Failure, res.Text, nil
	}
	return 0, res.Text, &tnerr.ConsistencyError{
		Detail: fmt.Sprintf("either(%q, %q) ended with neither holding: %q", success, failure, res.Text),
	}
}
