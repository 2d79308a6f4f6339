package util

import (
	"context"
	"errors"
	"io"
	"net"
)

// DefaultBufSize is the standard buffer size for network I/O (32 KiB).
const DefaultBufSize = 32 * 1024

// Relay shuffles data between a peer and a local reader/writer pair
// (typically stdin/stdout) until the peer hangs up, a copy fails or ctx
// is cancelled.  peer is read and written from two goroutines; conn is
// the connection underneath it and is closed on the way out.
//
// Relay does not wait for the local reader: a blocked terminal read
// cannot be interrupted, so that goroutine exits on its next read.
func Relay(ctx context.Context, conn net.Conn, peer io.ReadWriter, local io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	recvErr := make(chan error, 1)
	sendErr := make(chan error, 1)

	// peer → local
	go func() {
		buf := GetBuf()
		defer PutBuf(buf)
		_, err := io.CopyBuffer(w, peer, *buf)
		recvErr <- err
		cancel()
	}()

	// local → peer
	go func() {
		buf := GetBuf()
		defer PutBuf(buf)
		_, err := io.CopyBuffer(peer, local, *buf)
		// Half-close so the peer sees we are done sending, but keep
		// reading until it hangs up.
		if tc, ok := conn.(*net.TCPConn); ok {
			tc.CloseWrite() //nolint:errcheck
		}
		sendErr <- err
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close()

	if err := <-recvErr; !isHarmless(err) {
		return err
	}
	select {
	case err := <-sendErr:
		if !isHarmless(err) {
			return err
		}
	default:
	}
	return nil
}

// isHarmless returns true for errors that are expected during shutdown.
func isHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
