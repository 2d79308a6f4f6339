// Package transport provides the ways gotelnet reaches a TELNET peer:
// a direct TCP dial, or a TCP stream forwarded through an SSH gateway.
// What travels over the connection is the session layer's concern.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound connections to the peer.
type Dialer interface {
	// Dial establishes a connection to address ("host:port").
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases long-lived resources such as an SSH client.
	// Stateless dialers return nil.
	Close() error
}
