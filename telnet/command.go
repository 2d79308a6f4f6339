// Package telnet strips RFC 854 control sequences out of a raw byte
// stream.  A Decoder reads from any byte source, hands every decoded
// command to its Dispatcher (and from there to registered listeners),
// and returns only application data to its caller.
package telnet

import "fmt"

// Code is a TELNET command byte as defined by RFC 854.
type Code byte

const (
	SE   Code = 240 // end of subnegotiation
	NOP  Code = 241 // no operation
	DM   Code = 242 // data mark
	BRK  Code = 243 // break
	IP   Code = 244 // interrupt process
	AO   Code = 245 // abort output
	AYT  Code = 246 // are you there
	EC   Code = 247 // erase character
	EL   Code = 248 // erase line
	GA   Code = 249 // go ahead
	SB   Code = 250 // begin subnegotiation
	WILL Code = 251
	WONT Code = 252
	DO   Code = 253
	DONT Code = 254
	IAC  Code = 255 // interpret as command
)

var codeNames = map[Code]string{
	SE: "SE", NOP: "NOP", DM: "DM", BRK: "BRK", IP: "IP", AO: "AO",
	AYT: "AYT", EC: "EC", EL: "EL", GA: "GA", SB: "SB", WILL: "WILL",
	WONT: "WONT", DO: "DO", DONT: "DONT", IAC: "IAC",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(%d)", byte(c))
}

// Valid reports whether c is one of the sixteen command codes.
func (c Code) Valid() bool { return c >= SE }

// HasOption reports whether c is a negotiation verb followed by an
// option byte on the wire.
func (c Code) HasOption() bool {
	return c == WILL || c == WONT || c == DO || c == DONT
}

// Command is one decoded control event.  Commands are immutable; they
// are created by a Decoder and identified by their owner and sequence
// number.
type Command struct {
	code      Code
	option    byte
	hasOption bool
	seq       uint64
	owner     *Dispatcher
}

// Code returns the command code.
func (c Command) Code() Code { return c.code }

// Option returns the option byte and whether the command carries one.
func (c Command) Option() (byte, bool) { return c.option, c.hasOption }

// Seq returns the decoder-assigned sequence number, starting at 0.
func (c Command) Seq() uint64 { return c.seq }

// Bytes returns the wire encoding of the command.
func (c Command) Bytes() []byte {
	if c.hasOption {
		return []byte{byte(IAC), byte(c.code), c.option}
	}
	return []byte{byte(IAC), byte(c.code)}
}

func (c Command) String() string {
	if c.hasOption {
		return fmt.Sprintf("#%d %s %d", c.seq, c.code, c.option)
	}
	return fmt.Sprintf("#%d %s", c.seq, c.code)
}
