package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	tnerr "gotelnet/internal/errors"
	"gotelnet/util"
)

// ErrDeadlineUnsupported is returned by the read-deadline methods of a
// websocket stream.  A timed-out websocket read poisons the connection,
// so readers have to fall back to a background reader instead.
var ErrDeadlineUnsupported = errors.New("websocket stream: read deadlines not supported")

// WebSocketDialer reaches the peer through a websocket bridge that
// relays binary frames to and from a TELNET port (websockify and the
// serial-console proxies of most hypervisors work this way).
//
// URL may contain {host} and {port}, which are replaced with the parts
// of the dialed address.
type WebSocketDialer struct {
	URL     string
	Timeout time.Duration
	Header  http.Header

	logger *util.Logger
}

// NewWebSocketDialer returns a dialer for the bridge at url.
func NewWebSocketDialer(url string, timeout time.Duration, logger *util.Logger) *WebSocketDialer {
	return &WebSocketDialer{URL: url, Timeout: timeout, logger: logger}
}

// Dial opens the websocket and returns it as a byte stream.  network is
// ignored; the bridge decides how it reaches the TELNET port.
func (d *WebSocketDialer) Dial(ctx context.Context, _, address string) (net.Conn, error) {
	target := d.Target(address)
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.Timeout,
	}
	ws, resp, err := dialer.DialContext(ctx, target, d.Header)
	if err != nil {
		if resp != nil {
			d.logger.Debug("websocket handshake with %s: %s", target, resp.Status)
		}
		return nil, tnerr.Wrap("websocket", target, err)
	}
	d.logger.Verbose("websocket bridge %s open for %s", target, address)
	return &wsStream{ws: ws}, nil
}

// Target expands the URL template for address.
func (d *WebSocketDialer) Target(address string) string {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		host, port = address, ""
	}
	return strings.NewReplacer("{host}", host, "{port}", port).Replace(d.URL)
}

// Close is a no-op; every Dial owns its own connection.
func (d *WebSocketDialer) Close() error { return nil }

// wsStream adapts a message-oriented websocket to net.Conn.  Frame
// boundaries carry no meaning for TELNET, so reads run across them.
type wsStream struct {
	ws *websocket.Conn

	rmu sync.Mutex
	cur io.Reader

	wmu sync.Mutex
}

func (s *wsStream) Read(p []byte) (int, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	for {
		if s.cur == nil {
			typ, r, err := s.ws.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if typ != websocket.BinaryMessage && typ != websocket.TextMessage {
				continue
			}
			s.cur = r
		}
		n, err := s.cur.Read(p)
		if errors.Is(err, io.EOF) {
			s.cur = nil
			if n == 0 {
				continue
			}
			err = nil
		}
		return n, err
	}
}

func (s *wsStream) Write(p []byte) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.ws.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close sends a close frame before dropping the connection.
func (s *wsStream) Close() error {
	s.wmu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	s.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)) //nolint:errcheck
	s.wmu.Unlock()
	return s.ws.Close()
}

func (s *wsStream) LocalAddr() net.Addr  { return s.ws.LocalAddr() }
func (s *wsStream) RemoteAddr() net.Addr { return s.ws.RemoteAddr() }

func (s *wsStream) SetDeadline(t time.Time) error {
	if err := s.ws.SetWriteDeadline(t); err != nil {
		return err
	}
	return ErrDeadlineUnsupported
}

func (s *wsStream) SetReadDeadline(time.Time) error { return ErrDeadlineUnsupported }

func (s *wsStream) SetWriteDeadline(t time.Time) error { return s.ws.SetWriteDeadline(t) }
