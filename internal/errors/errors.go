// Package errors provides domain-specific error types for gotelnet.
//
// These types carry structured context (partial input, elapsed time,
// offending command) so a misbehaving remote peer can be diagnosed from
// the error text alone, without re-running with added logging.
package errors

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrTimeout         = errors.New("consumption timed out")
	ErrMalformed       = errors.New("malformed control sequence")
	ErrNotOwned        = errors.New("command not owned by this decoder")
	ErrInconsistent    = errors.New("internal consistency violation")
	ErrNotConnected    = errors.New("not connected")
	ErrLoginRejected   = errors.New("login rejected by remote")
	ErrAuthFailed      = errors.New("authentication failed")
	ErrHostKeyMismatch = errors.New("host key mismatch")
)

// ── Stream errors ────────────────────────────────────────────────────

// DecodeError reports a control sequence that could not be decoded.
// The stream it came from is unusable afterwards.
type DecodeError struct {
	Op        string // "command", "option"
	Partial   []byte // bytes of the unfinished sequence, starting at IAC
	Offset    int64  // raw bytes consumed from the source, the failing sequence included
	Delivered int64  // data bytes handed to the reader before the failure
	Err       error  // io.ErrUnexpectedEOF, ErrMalformed, or a source error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("telnet decode %s at byte %d after %d data bytes (sequence % x): %v",
		e.Op, e.Offset, e.Delivered, e.Partial, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TimeoutError is returned when no input satisfied the stop criterion
// within the consumer's overall timeout.  It is recoverable: Partial
// holds everything accumulated before giving up.
type TimeoutError struct {
	Elapsed time.Duration // silence since the last reception
	Timeout time.Duration // configured limit
	Partial string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("no matching input after %s (limit %s); received so far: %q",
		e.Elapsed.Truncate(time.Millisecond), e.Timeout, e.Partial)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// DispatchError wraps an error returned by a command listener.  The read
// that triggered dispatch is aborted.
type DispatchError struct {
	Command fmt.Stringer
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("listener failed on %s: %v", e.Command, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// OwnershipError reports an attempt to acknowledge a command that some
// other decoder produced.
type OwnershipError struct {
	Command fmt.Stringer
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("acknowledge %s: %v", e.Command, ErrNotOwned)
}

func (e *OwnershipError) Unwrap() error { return ErrNotOwned }

// ConsistencyError signals a bug in the criteria engine itself.
type ConsistencyError struct {
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("%v: %s", ErrInconsistent, e.Detail)
}

func (e *ConsistencyError) Unwrap() error { return ErrInconsistent }

// ── Transport errors ─────────────────────────────────────────────────

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // "dial", "read", "write"
	Addr      string
	Err       error
	Retryable bool
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SSHError represents a failure while reaching the peer through an SSH
// gateway.
type SSHError struct {
	Op   string // "auth", "hostkey", "handshake", "forward"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // flag name without dashes
	Value   interface{} // nil if missing
	Message string
	Hint    string // optional
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, detecting retryability from err.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable
	}
	return classifyRetryable(err)
}

// IsFatal reports whether err leaves the stream unusable: decode
// failures and listener failures both abort mid-sequence.
func IsFatal(err error) bool {
	var de *DecodeError
	var pe *DispatchError
	return errors.As(err, &de) || errors.As(err, &pe)
}

func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return true // refused or unreachable peers often come back
		}
		return opErr.Timeout()
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
