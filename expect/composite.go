package expect

import "strings"

// Composite combines operand criteria with AND or OR.
type Composite struct {
	and       bool
	verifyAll bool
	ops       []Criterion
}

// AllOf holds when every operand holds.  Evaluation stops at the first
// operand that does not hold.
func AllOf(ops ...Criterion) *Composite {
	return &Composite{and: true, ops: ops}
}

// AnyOf holds when at least one operand holds.  Evaluation stops at the
// first operand that holds.
func AnyOf(ops ...Criterion) *Composite {
	return &Composite{ops: ops}
}

// VerifyAll returns a copy of c that evaluates every operand on every
// call, so the verdict reports a state for each of them.
func (c *Composite) VerifyAll() *Composite {
	return &Composite{and: c.and, verifyAll: true, ops: c.ops}
}

// Operands returns the operand list.
func (c *Composite) Operands() []Criterion { return c.ops }

// Evaluate implements [Criterion].
func (c *Composite) Evaluate(r *Round) Verdict {
	states := make([]State, len(c.ops))
	decided := false // AND saw a failure, or OR saw a success

	for i, op := range c.ops {
		if decided && !c.verifyAll {
			break
		}
		ok := op.Evaluate(r).Holds
		if ok {
			states[i] = Holds
		} else {
			states[i] = NotHolds
		}
		if ok != c.and {
			decided = true
		}
	}

	return Verdict{
		Holds:    decided != c.and,
		operands: c.ops,
		states:   states,
	}
}

func (c *Composite) String() string {
	parts := make([]string, len(c.ops))
	for i, op := range c.ops {
		parts[i] = op.String()
	}
	name := "any"
	if c.and {
		name = "all"
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
