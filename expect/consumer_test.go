package expect

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"gotelnet/internal/metrics"
	"gotelnet/telnet"
)

// scriptSource yields one scripted chunk per poll, then nothing (or
// err, once the script is exhausted).
type scriptSource struct {
	chunks []string
	polls  int
	err    error
}

func (s *scriptSource) ReadAvailable(p []byte) (int, error) {
	s.polls++
	if len(s.chunks) == 0 {
		return 0, s.err
	}
	n := copy(p, s.chunks[0])
	s.chunks = s.chunks[1:]
	return n, nil
}

func newTestConsumer(src Source) *Consumer {
	c := NewConsumer(src)
	c.SetGranularity(time.Millisecond)
	c.SetTimeout(time.Second)
	return c
}

func TestConsumer_StopsAtMatchingChunk(t *testing.T) {
	src := &scriptSource{chunks: []string{"Wel", "come", "ogin:", "never read"}}
	c := newTestConsumer(src)

	got, err := c.UntilContains("ogin:")
	if err != nil {
		t.Fatalf("UntilContains: %v", err)
	}
	if got != "Welcomeogin:" {
		t.Errorf("got %q, want %q", got, "Welcomeogin:")
	}
	if src.polls != 3 {
		t.Errorf("polls = %d, want 3", src.polls)
	}
	if len(src.chunks) != 1 {
		t.Errorf("consumer read past the matching chunk")
	}
}

func TestConsumer_MatchSpanningChunks(t *testing.T) {
	src := &scriptSource{chunks: []string{"log", "in", ": "}}
	got, err := newTestConsumer(src).UntilSuffix("login: ")
	if err != nil {
		t.Fatalf("UntilSuffix: %v", err)
	}
	if got != "login: " {
		t.Errorf("got %q", got)
	}
}

func TestConsumer_Timeout(t *testing.T) {
	m := metrics.New()
	c := NewConsumer(&scriptSource{})
	c.SetGranularity(10 * time.Millisecond)
	c.SetTimeout(200 * time.Millisecond)
	c.SetMetrics(m)

	start := time.Now()
	got, err := c.Until(Contains("never"))
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatal("err should be *TimeoutError")
	}
	if te.Partial != "" || got != "" {
		t.Errorf("partial = %q / %q, want empty", te.Partial, got)
	}
	if elapsed < 200*time.Millisecond || elapsed > 400*time.Millisecond {
		t.Errorf("timed out after %s, want ~200ms", elapsed)
	}
	if m.Timeouts() != 1 {
		t.Errorf("metrics timeouts = %d", m.Timeouts())
	}
}

func TestConsumer_TimeoutCarriesPartial(t *testing.T) {
	c := newTestConsumer(&scriptSource{chunks: []string{"Password"}})
	c.SetTimeout(50 * time.Millisecond)

	_, err := c.UntilContains("Password:")
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v", err)
	}
	if te.Partial != "Password" {
		t.Errorf("partial = %q", te.Partial)
	}
	if !strings.Contains(err.Error(), `"Password"`) {
		t.Errorf("message should quote the partial text: %v", err)
	}
}

func TestConsumer_EndOfStream(t *testing.T) {
	c := newTestConsumer(&scriptSource{chunks: []string{"bye"}, err: io.EOF})

	got, err := c.UntilContains("$ ")
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want EOF", err)
	}
	if got != "bye" {
		t.Errorf("partial = %q", got)
	}
}

func TestConsumer_UntilAny(t *testing.T) {
	src := &scriptSource{chunks: []string{"Password: "}}
	got, idx, err := newTestConsumer(src).UntilAny("login:", "Password:")
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 || got != "Password: " {
		t.Errorf("got %q idx %d", got, idx)
	}
}

func TestConsumer_UntilMatch(t *testing.T) {
	src := &scriptSource{chunks: []string{"ls\r\n", "a b\r\n", "user@box:~$ "}}
	got, err := newTestConsumer(src).UntilMatch(`.*[$#] `, true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, "$ ") {
		t.Errorf("got %q", got)
	}

	if _, err := newTestConsumer(src).UntilMatch(`[`, true); err == nil {
		t.Error("expected compile error")
	}
}

func TestConsumer_ForIgnoresTimeout(t *testing.T) {
	c := newTestConsumer(&scriptSource{chunks: []string{"motd ", "line"}})
	c.SetTimeout(10 * time.Millisecond)

	start := time.Now()
	got, err := c.For(80 * time.Millisecond)
	if err != nil {
		t.Fatalf("For: %v", err)
	}
	if got != "motd line" {
		t.Errorf("got %q", got)
	}
	if el := time.Since(start); el < 80*time.Millisecond {
		t.Errorf("returned after %s", el)
	}
}

func TestConsumer_UntilEither(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
		want   Outcome
	}{
		{"success", []string{"Last login: x\r\n", "OK\r\n"}, Success},
		{"failure", []string{"...", "ERR...", "OK"}, Failure},
		{"both in one chunk", []string{"ERR then OK"}, Success},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, text, err := newTestConsumer(&scriptSource{chunks: tt.chunks}).UntilEither("OK", "ERR")
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("outcome = %s, want %s (text %q)", got, tt.want, text)
			}
		})
	}
}

func TestConsumer_EitherVerdict(t *testing.T) {
	ok, bad := Contains("OK"), Contains("ERR")
	res, err := newTestConsumer(&scriptSource{chunks: []string{"...ERR..."}}).Run(AnyOf(ok, bad))
	if err != nil {
		t.Fatal(err)
	}
	h := res.Verdict.Holding()
	if len(h) != 1 || h[0] != bad {
		t.Errorf("holding = %v, want only the failure criterion", h)
	}
	if res.Verdict.State(ok) != NotHolds {
		t.Errorf("success criterion state = %s", res.Verdict.State(ok))
	}
}

func TestConsumer_OverDecoder(t *testing.T) {
	raw := []byte("Wel\xff\xfd\x01come\xff\xf1\r\nlogin: ")
	var sink bytes.Buffer
	d := telnet.NewDecoder(bytes.NewReader(raw), &sink)
	d.Register(telnet.NoOption{})

	got, err := newTestConsumer(d).UntilContains("login: ")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Welcome\r\nlogin: " {
		t.Errorf("got %q", got)
	}
	if want := []byte{255, 252, 1}; !bytes.Equal(sink.Bytes(), want) {
		t.Errorf("reply % x, want % x", sink.Bytes(), want)
	}
}

func TestOutcome_String(t *testing.T) {
	if Success.String() != "success" || Failure.String() != "failure" || Outcome(0).String() != "none" {
		t.Error("unexpected Outcome names")
	}
}
