package telnet

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"time"

	tnerr "gotelnet/internal/errors"
	"gotelnet/internal/metrics"
	"gotelnet/util"
)

// DefaultProbeWindow bounds how long an availability probe on a
// deadline-capable source (a net.Conn) may block.
const DefaultProbeWindow = time.Millisecond

// Availability is implemented by sources that can tell how many bytes
// are readable without blocking.  A source that has hit end of stream
// should report a nonzero count so the next read surfaces the error.
type Availability interface {
	Available() int
}

type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Decoder filters TELNET control sequences out of a byte source.  Data
// bytes are returned to the caller; commands are numbered and handed to
// the decoder's Dispatcher before the next data byte is returned.
//
// A Decoder is not safe for concurrent use.  Callers that share one
// between goroutines must serialise reads themselves.
type Decoder struct {
	raw  io.Reader
	src  *bufio.Reader
	sink io.Writer
	disp Dispatcher

	seq       uint64
	offset    int64 // raw bytes consumed
	delivered int64 // data bytes returned

	probeWindow time.Duration
	logger      *util.Logger
	metrics     *metrics.Collector
}

// NewDecoder returns a Decoder reading from src and writing replies to
// sink (which may be nil for a read-only decoder).
//
// Sources that neither implement [Availability] nor accept read
// deadlines are wrapped in a [Pump] so that ReadAvailable never blocks
// on ordinary data.
func NewDecoder(src io.Reader, sink io.Writer) *Decoder {
	raw := src
	switch s := src.(type) {
	case Availability:
	case deadliner:
		// Some net.Conn implementations (SSH channels) refuse
		// deadlines; clearing one is a harmless way to find out.
		if err := s.SetReadDeadline(time.Time{}); err != nil {
			raw = NewPump(src)
		}
	default:
		raw = NewPump(src)
	}

	d := &Decoder{
		raw:         raw,
		src:         bufio.NewReaderSize(raw, util.DefaultBufSize),
		sink:        sink,
		probeWindow: DefaultProbeWindow,
	}
	d.disp.decoder = d
	return d
}

// SetLogger attaches a logger; decoded commands are logged at debug level.
func (d *Decoder) SetLogger(l *util.Logger) { d.logger = l }

// SetMetrics attaches a metrics collector.
func (d *Decoder) SetMetrics(m *metrics.Collector) { d.metrics = m }

// SetProbeWindow overrides [DefaultProbeWindow].
func (d *Decoder) SetProbeWindow(w time.Duration) { d.probeWindow = w }

// Dispatcher returns the decoder's command dispatcher.
func (d *Decoder) Dispatcher() *Dispatcher { return &d.disp }

// Register is shorthand for d.Dispatcher().Register(l).
func (d *Decoder) Register(l Listener) { d.disp.Register(l) }

// Unregister is shorthand for d.Dispatcher().Unregister(l).
func (d *Decoder) Unregister(l Listener) { d.disp.Unregister(l) }

// Acknowledge is shorthand for d.Dispatcher().Acknowledge(cmd).
func (d *Decoder) Acknowledge(cmd Command) error { return d.disp.Acknowledge(cmd) }

// Pending is shorthand for d.Dispatcher().Pending().
func (d *Decoder) Pending() []Command { return d.disp.Pending() }

// Delivered returns the number of data bytes handed out so far.
func (d *Decoder) Delivered() int64 { return d.delivered }

// ── reading ──────────────────────────────────────────────────────────

// ReadByte returns the next data byte, blocking on the source as
// needed.  Control sequences met on the way are dispatched and skipped.
func (d *Decoder) ReadByte() (byte, error) {
	for {
		b, data, err := d.step()
		if err != nil {
			return 0, err
		}
		if data {
			return b, nil
		}
	}
}

// Read blocks for the first data byte and then returns whatever else is
// already buffered, without waiting for more input.
func (d *Decoder) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	b, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	p[0] = b
	n := 1
	for n < len(p) && d.src.Buffered() > 0 {
		b, data, err := d.step()
		if err != nil {
			return n, err
		}
		if data {
			p[n] = b
			n++
		}
	}
	return n, nil
}

// ReadAvailable decodes as much as is readable without blocking into p
// and returns the number of data bytes written.  Once a control
// sequence has started, its remaining bytes are read even if that
// blocks.
func (d *Decoder) ReadAvailable(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		avail, err := d.Available()
		if err != nil {
			return n, err
		}
		if avail == 0 {
			break
		}
		b, data, err := d.step()
		if err != nil {
			return n, err
		}
		if data {
			p[n] = b
			n++
		}
	}
	return n, nil
}

// Available reports how many raw bytes can be read without blocking.
// The count includes bytes that belong to control sequences.
func (d *Decoder) Available() (int, error) {
	if n := d.src.Buffered(); n > 0 {
		return n, nil
	}
	switch s := d.raw.(type) {
	case Availability:
		return s.Available(), nil
	case deadliner:
		return d.probe(s)
	}
	return 0, nil
}

// probe tries to fill the read buffer within the probe window.
func (d *Decoder) probe(s deadliner) (int, error) {
	if err := s.SetReadDeadline(time.Now().Add(d.probeWindow)); err != nil {
		return 0, err
	}
	_, err := d.src.Peek(1)
	if cerr := s.SetReadDeadline(time.Time{}); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		if isTimeout(err) {
			return 0, nil
		}
		if errors.Is(err, io.EOF) {
			return 1, nil // let the next read report it
		}
		return 0, err
	}
	return d.src.Buffered(), nil
}

// step consumes one unit from the source: either a single data byte
// (data == true) or one complete control sequence, which is dispatched.
func (d *Decoder) step() (b byte, data bool, err error) {
	b, err = d.src.ReadByte()
	if err != nil {
		return 0, false, err
	}
	d.offset++
	d.metrics.BytesReceived(1)

	if Code(b) != IAC {
		d.delivered++
		return b, true, nil
	}

	partial := []byte{b}
	c, err := d.src.ReadByte()
	if err != nil {
		return 0, false, d.truncated("command", partial, err)
	}
	d.offset++
	d.metrics.BytesReceived(1)
	partial = append(partial, c)

	code := Code(c)
	if !code.Valid() {
		return 0, false, &tnerr.DecodeError{
			Op: "command", Partial: partial, Offset: d.offset, Delivered: d.delivered, Err: tnerr.ErrMalformed,
		}
	}

	cmd := Command{code: code, seq: d.seq, owner: &d.disp}
	if code.HasOption() {
		o, err := d.src.ReadByte()
		if err != nil {
			return 0, false, d.truncated("option", partial, err)
		}
		d.offset++
		d.metrics.BytesReceived(1)
		cmd.option = o
		cmd.hasOption = true
	}
	d.seq++

	d.metrics.CommandDecoded()
	d.logger.Debug("recv %s", cmd)

	return 0, false, d.disp.dispatch(cmd)
}

func (d *Decoder) truncated(op string, partial []byte, err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return &tnerr.DecodeError{Op: op, Partial: partial, Offset: d.offset, Delivered: d.delivered, Err: err}
}

// ── writing ──────────────────────────────────────────────────────────

// Send writes a negotiation verb (WILL, WONT, DO, DONT) with its option
// to the sink.
func (d *Decoder) Send(code Code, option byte) error {
	d.logger.Debug("send %s %d", code, option)
	return d.writeRaw([]byte{byte(IAC), byte(code), option})
}

// SendCommand writes an option-less command such as AYT or NOP.
func (d *Decoder) SendCommand(code Code) error {
	d.logger.Debug("send %s", code)
	return d.writeRaw([]byte{byte(IAC), byte(code)})
}

// Write sends application data to the sink, doubling any 0xFF byte so
// the peer does not mistake it for IAC.
func (d *Decoder) Write(p []byte) (int, error) {
	out := p
	for i, b := range p {
		if Code(b) == IAC {
			out = make([]byte, 0, len(p)+8)
			out = append(out, p[:i]...)
			for _, b := range p[i:] {
				out = append(out, b)
				if Code(b) == IAC {
					out = append(out, b)
				}
			}
			break
		}
	}
	if err := d.writeRaw(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (d *Decoder) writeRaw(b []byte) error {
	if d.sink == nil {
		return tnerr.ErrNotConnected
	}
	if _, err := d.sink.Write(b); err != nil {
		return err
	}
	d.metrics.BytesSent(int64(len(b)))
	if f, ok := d.sink.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
