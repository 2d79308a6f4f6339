package metrics

import (
	"encoding/json"
	"sync"
	"testing"
)

func TestCollector_Traffic(t *testing.T) {
	c := New()
	c.BytesReceived(1024)
	c.BytesSent(3)
	c.BytesReceived(100)
	c.CommandDecoded()
	c.CommandDecoded()

	if c.TotalBytesIn() != 1124 {
		t.Errorf("bytes in = %d, want 1124", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 3 {
		t.Errorf("bytes out = %d, want 3", c.TotalBytesOut())
	}
	if c.CommandsDecoded() != 2 {
		t.Errorf("commands = %d, want 2", c.CommandsDecoded())
	}
}

func TestCollector_Rounds(t *testing.T) {
	c := New()
	c.RoundFinished(false)
	c.RoundFinished(true)
	c.RoundFinished(false)

	if c.Rounds() != 3 || c.Timeouts() != 1 {
		t.Errorf("rounds = %d timeouts = %d, want 3 and 1", c.Rounds(), c.Timeouts())
	}
}

func TestCollector_Errors(t *testing.T) {
	c := New()
	c.RecordError("connection reset")
	c.RecordError("no matching input")

	if c.ErrorCount() != 2 {
		t.Errorf("errors = %d", c.ErrorCount())
	}
	s := c.Snapshot()
	if s.LastErrorMessage != "no matching input" || s.LastError == "" {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.BytesReceived(1)
	c.BytesSent(1)
	c.CommandDecoded()
	c.RoundFinished(true)
	c.DialAttempt()
	c.RecordError("x")

	if c.TotalBytesIn() != 0 || c.Rounds() != 0 || c.ErrorCount() != 0 {
		t.Error("nil collector should read as zero")
	}
	if c.Snapshot() != (Snapshot{}) {
		t.Error("nil collector snapshot should be empty")
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.BytesReceived(1)
				c.BytesSent(1)
			}
		}()
	}
	wg.Wait()
	if c.TotalBytesIn() != 8000 || c.TotalBytesOut() != 8000 {
		t.Errorf("in = %d out = %d", c.TotalBytesIn(), c.TotalBytesOut())
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.DialAttempt()
	c.DialAttempt()
	c.BytesReceived(42)
	c.RoundFinished(true)

	var got map[string]interface{}
	if err := json.Unmarshal([]byte(c.JSON()), &got); err != nil {
		t.Fatalf("JSON() is not valid JSON: %v", err)
	}
	for key, want := range map[string]float64{
		"dial_attempts": 2,
		"bytes_in":      42,
		"rounds":        1,
		"timeouts":      1,
	} {
		if got[key] != want {
			t.Errorf("%s = %v, want %v", key, got[key], want)
		}
	}
	if _, ok := got["last_error"]; ok {
		t.Error("last_error should be omitted when no error was recorded")
	}
	if _, ok := got["uptime"]; !ok {
		t.Error("uptime missing")
	}
}
