package telnet

import tnerr "gotelnet/internal/errors"

// Error types returned by this package.
type (
	DecodeError    = tnerr.DecodeError
	DispatchError  = tnerr.DispatchError
	OwnershipError = tnerr.OwnershipError
)

var (
	// ErrMalformed is wrapped by a DecodeError for a command byte
	// outside the RFC 854 range.
	ErrMalformed = tnerr.ErrMalformed
	// ErrNotOwned is wrapped by every OwnershipError.
	ErrNotOwned = tnerr.ErrNotOwned
)
