// Package metrics provides lightweight, lock-free counters for tracking
// what happened on a telnet session: raw traffic, decoded commands and
// consumption rounds.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for one session.
type Collector struct {
	bytesIn         atomic.Int64
	bytesOut        atomic.Int64
	commandsDecoded atomic.Int64
	rounds          atomic.Int64
	roundsTimedOut  atomic.Int64
	dialAttempts    atomic.Int64
	errorsTotal     atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── I/O ──────────────────────────────────────────────────────────────

// BytesReceived records n raw bytes read from the peer.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n raw bytes written to the peer.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total raw bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total raw bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Protocol ─────────────────────────────────────────────────────────

// CommandDecoded records one control sequence taken out of the stream.
func (c *Collector) CommandDecoded() {
	if c == nil {
		return
	}
	c.commandsDecoded.Add(1)
}

// CommandsDecoded returns the number of decoded control sequences.
func (c *Collector) CommandsDecoded() int64 {
	if c == nil {
		return 0
	}
	return c.commandsDecoded.Load()
}

// ── Consumption ──────────────────────────────────────────────────────

// RoundFinished records the end of one consumption round.
func (c *Collector) RoundFinished(timedOut bool) {
	if c == nil {
		return
	}
	c.rounds.Add(1)
	if timedOut {
		c.roundsTimedOut.Add(1)
	}
}

// Rounds returns the number of finished consumption rounds.
func (c *Collector) Rounds() int64 {
	if c == nil {
		return 0
	}
	return c.rounds.Load()
}

// Timeouts returns how many rounds ended in a timeout.
func (c *Collector) Timeouts() int64 {
	if c == nil {
		return 0
	}
	return c.roundsTimedOut.Load()
}

// DialAttempt records one attempt to reach the peer.
func (c *Collector) DialAttempt() {
	if c == nil {
		return
	}
	c.dialAttempts.Add(1)
}

// ── Errors ───────────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	CommandsDecoded  int64  `json:"commands_decoded"`
	Rounds           int64  `json:"rounds"`
	Timeouts         int64  `json:"timeouts"`
	DialAttempts     int64  `json:"dial_attempts"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:          time.Since(c.startTime).Truncate(time.Millisecond).String(),
		BytesIn:         c.bytesIn.Load(),
		BytesOut:        c.bytesOut.Load(),
		CommandsDecoded: c.commandsDecoded.Load(),
		Rounds:          c.rounds.Load(),
		Timeouts:        c.roundsTimedOut.Load(),
		DialAttempts:    c.dialAttempts.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
