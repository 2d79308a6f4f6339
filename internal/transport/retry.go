package transport

import (
	"context"
	"net"

	tnerr "gotelnet/internal/errors"
	"gotelnet/internal/metrics"
	"gotelnet/internal/retry"
	"gotelnet/util"
)

// RetryingDialer retries an inner Dialer with exponential backoff as
// long as the failure is classified retryable.
type RetryingDialer struct {
	Inner   Dialer
	Backoff *retry.Backoff
	Logger  *util.Logger
	Metrics *metrics.Collector
}

// Dial implements [Dialer].
func (d *RetryingDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	var conn net.Conn
	err := d.Backoff.Do(ctx, func(attempt int) error {
		d.Metrics.DialAttempt()
		c, err := d.Inner.Dial(ctx, network, address)
		if err != nil {
			if !tnerr.IsRetryable(err) {
				return retry.Permanent(err)
			}
			d.Logger.Verbose("dial %s attempt %d failed: %v", address, attempt, err)
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Close closes the inner dialer.
func (d *RetryingDialer) Close() error { return d.Inner.Close() }
