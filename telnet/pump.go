package telnet

import (
	"io"
	"sync"
)

// Pump gives a blocking reader an availability count by moving its
// bytes into memory from a single background goroutine.  It is how a
// Decoder drains sources such as os.Stdin or an SSH channel without
// blocking between polls.
type Pump struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  []byte
	err  error
}

// NewPump starts pumping r.  The goroutine exits when r returns an
// error (including io.EOF); closing r is the way to stop it.
func NewPump(r io.Reader) *Pump {
	p := &Pump{}
	p.cond = sync.NewCond(&p.mu)
	go p.run(r)
	return p
}

func (p *Pump) run(r io.Reader) {
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)

		p.mu.Lock()
		p.buf = append(p.buf, chunk[:n]...)
		if err != nil {
			p.err = err
		}
		p.cond.Broadcast()
		p.mu.Unlock()

		if err != nil {
			return
		}
	}
}

// Read blocks until pumped bytes or the source's error are available.
func (p *Pump) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.buf) == 0 && p.err == nil {
		p.cond.Wait()
	}
	if len(p.buf) > 0 {
		n := copy(b, p.buf)
		p.buf = p.buf[n:]
		return n, nil
	}
	return 0, p.err
}

// Available returns the number of pumped bytes.  Once the source has
// failed and everything has been read it returns 1 so the caller's next
// Read reports the error instead of polling forever.
func (p *Pump) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf) == 0 && p.err != nil {
		return 1
	}
	return len(p.buf)
}
