package expect

import (
	"fmt"
	"time"
)

type quiescence struct {
	idle      time.Duration
	resetting bool
}

// Quiet holds once nothing has been received for idle.  Every nonempty
// chunk restarts the clock.
func Quiet(idle time.Duration) Criterion {
	return &quiescence{idle: idle, resetting: true}
}

// Elapsed holds once d has passed since its first evaluation in the
// round, whatever arrives in between.
func Elapsed(d time.Duration) Criterion {
	return &quiescence{idle: d}
}

// Evaluate never holds on the first call of a round; that call only
// records the baseline.
func (q *quiescence) Evaluate(r *Round) Verdict {
	base, seen := r.marks[q]
	if !seen || (q.resetting && r.Chunk() != "") {
		r.marks[q] = r.Now()
		return Verdict{}
	}
	return Verdict{Holds: r.Now().Sub(base) >= q.idle}
}

func (q *quiescence) String() string {
	if q.resetting {
		return fmt.Sprintf("quiet(%s)", q.idle)
	}
	return fmt.Sprintf("elapsed(%s)", q.idle)
}
