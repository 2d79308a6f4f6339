// Package retry repeats dial attempts with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// PermanentError marks a failure that another attempt cannot fix, such
// as an unresolvable host name or a rejected SSH key.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so that [Backoff.Do] returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err carries a [PermanentError].
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Backoff describes the retry schedule.  Zero fields fall back to the
// defaults noted below.
type Backoff struct {
	Initial  time.Duration // wait after the first failure (default 500ms)
	Max      time.Duration // cap on a single wait (default 5s)
	Factor   float64       // growth per attempt (default 2)
	Attempts int           // total tries including the first; 0 means unlimited
	Jitter   bool          // spread each wait by ±25%

	// OnRetry, if set, is called after a failed attempt with the wait
	// that follows it.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// ForRetries returns the schedule used for dialing: one attempt plus n
// retries, starting at 500ms and doubling up to 5s.
func ForRetries(n int) *Backoff {
	if n < 0 {
		n = 0
	}
	return &Backoff{
		Initial:  500 * time.Millisecond,
		Max:      5 * time.Second,
		Factor:   2,
		Attempts: n + 1,
		Jitter:   true,
	}
}

// Delay returns the un-jittered wait after failed attempt number
// attempt (1-based).
func (b *Backoff) Delay(attempt int) time.Duration {
	initial, max, factor := b.Initial, b.Max, b.Factor
	if initial <= 0 {
		initial = 500 * time.Millisecond
	}
	if max <= 0 {
		max = 5 * time.Second
	}
	if factor < 1 {
		factor = 2
	}
	d := float64(initial) * math.Pow(factor, float64(attempt-1))
	if d > float64(max) {
		return max
	}
	return time.Duration(d)
}

// Do calls fn until it returns nil, returns a [Permanent] error, the
// attempt budget is spent or ctx is done.  attempt is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		var pe *PermanentError
		if errors.As(err, &pe) {
			return pe.Err
		}
		if b.Attempts > 0 && attempt >= b.Attempts {
			if attempt == 1 {
				return err
			}
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		wait := b.Delay(attempt)
		if b.Jitter {
			wait = jitter(wait)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry cancelled: %w (last error: %v)", ctx.Err(), err)
		case <-t.C:
		}
	}
}

// jitter moves d by up to ±25%, never below 1ms.
func jitter(d time.Duration) time.Duration {
	quarter := float64(d) / 4
	j := float64(d) + (rand.Float64()*2-1)*quarter
	return time.Duration(math.Max(j, float64(time.Millisecond)))
}
