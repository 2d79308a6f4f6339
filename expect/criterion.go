// Package expect accumulates decoded text from a telnet stream until a
// stop criterion holds.
//
// Criteria are small predicates (substring, suffix, pattern, quiet
// period) that compose with AllOf and AnyOf.  Evaluating a criterion
// returns a Verdict value rather than mutating the criterion, so one
// criterion can serve any number of consumption rounds.
package expect

import (
	"strings"
	"time"
)

// Criterion decides whether a consumption round may stop.
type Criterion interface {
	Evaluate(r *Round) Verdict
	String() string
}

// State is the evaluation state of one composite operand.
type State int

const (
	Unverified State = iota
	Holds
	NotHolds
)

func (s State) String() string {
	switch s {
	case Holds:
		return "holds"
	case NotHolds:
		return "does-not-hold"
	default:
		return "unverified"
	}
}

// Round is the evaluation context of one consumption round: the chunk
// received by the latest poll, everything accumulated so far, and
// per-round scratch state of time-based criteria.
type Round struct {
	chunk string
	text  strings.Builder
	now   time.Time
	marks map[Criterion]time.Time
}

// NewRound starts an empty round at the given time.
func NewRound(start time.Time) *Round {
	return &Round{now: start, marks: make(map[Criterion]time.Time)}
}

// Feed appends the result of one poll to the round.  An empty chunk
// records a poll that found nothing.
func (r *Round) Feed(chunk string, now time.Time) {
	r.chunk = chunk
	r.text.WriteString(chunk)
	r.now = now
}

// Chunk returns what the latest poll received.
func (r *Round) Chunk() string { return r.chunk }

// Text returns everything received in this round.
func (r *Round) Text() string { return r.text.String() }

// Now returns the time of the latest poll.
func (r *Round) Now() time.Time { return r.now }

// Verdict is the outcome of one evaluation.  For composites it also
// records what happened to every operand, so a caller can tell which of
// several alternatives ended the round.  Atomic criteria leave the
// operand lists empty.
type Verdict struct {
	Holds    bool
	operands []Criterion
	states   []State
}

// State returns the state of operand c, or Unverified if c is not an
// operand of the evaluated composite.
func (v Verdict) State(c Criterion) State {
	for i, op := range v.operands {
		if op == c {
			return v.states[i]
		}
	}
	return Unverified
}

// FirstHolding returns the first operand that held.
func (v Verdict) FirstHolding() (Criterion, bool) {
	for i, op := range v.operands {
		if v.states[i] == Holds {
			return op, true
		}
	}
	return nil, false
}

// Holding returns the operands that held, in operand order.
func (v Verdict) Holding() []Criterion { return v.filter(Holds) }

// NotHolding returns the operands that were evaluated and did not hold.
func (v Verdict) NotHolding() []Criterion { return v.filter(NotHolds) }

// Unverified returns the operands skipped by short-circuiting.
func (v Verdict) Unverified() []Criterion { return v.filter(Unverified) }

func (v Verdict) filter(s State) []Criterion {
	var out []Criterion
	for i, op := range v.operands {
		if v.states[i] == s {
			out = append(out, op)
		}
	}
	return out
}
