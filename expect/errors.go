package expect

import tnerr "gotelnet/internal/errors"

// Error types returned by this package.
type (
	TimeoutError     = tnerr.TimeoutError
	ConsistencyError = tnerr.ConsistencyError
)

// ErrTimeout matches every *TimeoutError under errors.Is.
var ErrTimeout = tnerr.ErrTimeout
