package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	tnerr "gotelnet/internal/errors"
)

// startBridge serves a websocket that sends a login prompt split over
// two frames, answers the first message it gets and then closes.
func startBridge(t *testing.T) (url string, targets chan string) {
	t.Helper()
	targets = make(chan string, 1)
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("/telnet", func(w http.ResponseWriter, r *http.Request) {
		targets <- r.URL.Query().Get("to")
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		ws.WriteMessage(websocket.BinaryMessage, []byte("log"))   //nolint:errcheck
		ws.WriteMessage(websocket.BinaryMessage, []byte("in: "))  //nolint:errcheck
		ws.WriteMessage(websocket.PingMessage, []byte("ignored")) //nolint:errcheck

		_, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}
		reply := append([]byte("got:"), msg...)
		bye := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		ws.WriteMessage(websocket.TextMessage, reply) //nolint:errcheck
		ws.WriteMessage(websocket.CloseMessage, bye)  //nolint:errcheck
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http"), targets
}

func TestWebSocketDialer_Stream(t *testing.T) {
	base, targets := startBridge(t)
	d := NewWebSocketDialer(base+"/telnet?to={host}:{port}", 2*time.Second, nil)

	conn, err := d.Dial(context.Background(), "tcp", "core1.lab:2323")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if got := <-targets; got != "core1.lab:2323" {
		t.Errorf("bridge asked for %q", got)
	}

	prompt := make([]byte, len("login: "))
	if _, err := io.ReadFull(conn, prompt); err != nil {
		t.Fatalf("read prompt: %v", err)
	}
	if string(prompt) != "login: " {
		t.Errorf("prompt = %q", prompt)
	}

	if _, err := conn.Write([]byte("admin\r\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	rest, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(rest) != "got:admin\r\n" {
		t.Errorf("reply = %q", rest)
	}
}

func TestWebSocketDialer_RefusesReadDeadlines(t *testing.T) {
	base, _ := startBridge(t)
	conn, err := NewWebSocketDialer(base+"/telnet", time.Second, nil).Dial(context.Background(), "tcp", "h:23")
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Time{}); !errors.Is(err, ErrDeadlineUnsupported) {
		t.Errorf("SetReadDeadline = %v", err)
	}
	if err := conn.SetWriteDeadline(time.Now().Add(time.Second)); err != nil {
		t.Errorf("SetWriteDeadline = %v", err)
	}
	if conn.RemoteAddr() == nil || conn.LocalAddr() == nil {
		t.Error("addresses should come from the underlying connection")
	}
}

func TestWebSocketDialer_BadHandshake(t *testing.T) {
	base, _ := startBridge(t)
	_, err := NewWebSocketDialer(base+"/nowhere", time.Second, nil).Dial(context.Background(), "tcp", "h:23")

	var ne *tnerr.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want *NetworkError", err)
	}
	if ne.Retryable {
		t.Error("a rejected handshake is not retryable")
	}
	if !errors.Is(err, websocket.ErrBadHandshake) {
		t.Errorf("err should wrap ErrBadHandshake: %v", err)
	}
}

func TestWebSocketDialer_Target(t *testing.T) {
	d := &WebSocketDialer{URL: "wss://b/{host}/{port}"}
	tests := map[string]string{
		"router:23":   "wss://b/router/23",
		"[::1]:2323":  "wss://b/::1/2323",
		"noport.host": "wss://b/noport.host/",
	}
	for in, want := range tests {
		if got := d.Target(in); got != want {
			t.Errorf("Target(%q) = %q, want %q", in, got, want)
		}
	}
}
