package sirc

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Message represents any incoming or outgoing IRC line.
//
// A message consists of three parts: an optional prefix, a command, and params.
// The meaning of each parameter depends on the command; the grammar
// does not interpret them.
type Message struct {

	// Prefix is where the message originated from.
	// It is nil when the line carried no prefix, and should be left nil
	// for messages that will be written to the connection.
	Prefix *Prefix

	// Command is the verb or numeric such as PRIVMSG, PING, 376, etc.
	Command Command

	// Params contains all the message parameters in order.
	// If the line included a trailing component it is stored as the
	// last parameter without the leading ':'.
	Params Params

	// Trailing controls whether the last parameter is written in the
	// trailing form (preceded by ':'). Parsed messages set it when the
	// sentinel was present. Only a trailing parameter may contain SPACE;
	// MarshalText does not detect this on the caller's behalf.
	Trailing bool
}

// NewMessage constructs a new Message to be sent on the connection
// with cmd as the verb and args as the message parameters.
//
// Only the last argument may contain SPACE (ascii 32), and only if the
// message is marked Trailing. Use NewTrailingMessage for that case.
func NewMessage(cmd Command, args ...string) *Message {
	p := make(Params, len(args))
	copy(p, args)
	return &Message{
		Command: cmd,
		Params:  p,
	}
}

// NewTrailingMessage is like NewMessage, but the final argument is
// written in the trailing form and may contain spaces.
func NewTrailingMessage(cmd Command, args ...string) *Message {
	m := NewMessage(cmd, args...)
	m.Trailing = len(args) > 0
	return m
}

// MarshalText implements encoding.TextMarshaler.
// The returned line is always CRLF-terminated.
func (m *Message) MarshalText() ([]byte, error) {
	if m.Command.IsZero() {
		return nil, fmt.Errorf("marshal text: %w: message has no command", ErrMalformedMessage)
	}

	buf := bytes.NewBuffer(make([]byte, 0, 512))

	if m.Prefix != nil {
		buf.WriteByte(startPrefix)
		buf.WriteString(m.Prefix.String())
		buf.WriteByte(delimParam)
	}

	buf.WriteString(m.Command.String())

	for i, p := range m.Params {
		buf.WriteByte(delimParam)
		if m.Trailing && i == len(m.Params)-1 {
			buf.WriteByte(startTrailing)
		}
		buf.WriteString(p)
	}
	buf.WriteString("\r\n")

	return buf.Bytes(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler,
// accepting a line read from an IRC stream.
// text should not include the trailing CR-LF pair.
func (m *Message) UnmarshalText(text []byte) error {
	parsed, err := ParseMessage(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// String returns the wire form of m without the line terminator.
func (m *Message) String() string {
	b, err := m.MarshalText()
	if err != nil {
		return ""
	}
	return string(bytes.TrimSuffix(b, []byte("\r\n")))
}

// Command is an IRC command: either a three digit numeric reply or a
// textual verb such as PRIVMSG. The zero value is no command at all.
//
// Command is comparable and may be used as a map key.
type Command struct {
	numeric   int
	verb      string
	isNumeric bool
}

// Numeric returns the Command for numeric reply n.
func Numeric(n int) Command {
	return Command{numeric: n, isNumeric: true}
}

// Verb returns the Command for a textual verb.
// Verbs are case-insensitive and are normalized to upper case.
func Verb(v string) Command {
	return Command{verb: strings.ToUpper(v)}
}

// Numeric returns the numeric value and true if c is a numeric reply.
func (c Command) Numeric() (int, bool) {
	return c.numeric, c.isNumeric
}

// IsNumeric reports whether c is a numeric reply.
func (c Command) IsNumeric() bool {
	return c.isNumeric
}

// IsZero reports whether c is the zero Command.
func (c Command) IsZero() bool {
	return !c.isNumeric && c.verb == ""
}

// String implements fmt.Stringer. Numerics are zero-padded to three digits.
func (c Command) String() string {
	if c.isNumeric {
		s := strconv.Itoa(c.numeric)
		for len(s) < 3 {
			s = "0" + s
		}
		return s
	}
	return c.verb
}

// Is does a case-insensitive compare against a verb such as CmdPrivmsg.
func (c Command) Is(verb string) bool {
	return !c.isNumeric && strings.EqualFold(c.verb, verb)
}

// Prefix is the optional message (line) prefix,
// which indicates the source (user or server) of the message.
//
// Example nickname-only prefix:
//
//	:tmi.twitch.tv 376 bot :>
//
// Example "fulladdress" prefix:
//
//	:alice!alice@alice.tmi.twitch.tv JOIN #foo
//
// User and Host are empty when absent; each is optional independently.
type Prefix struct {
	Nick string
	User string
	Host string
}

// String implements fmt.Stringer.
func (p Prefix) String() string {
	s := p.Nick
	if p.User != "" {
		s += "!" + p.User
	}
	if p.Host != "" {
		s += "@" + p.Host
	}
	return s
}

// Params contains the slice of arguments for a message.
//
// Prefer the Get method for reading params rather than accessing the slice directly.
type Params []string

// Get returns the nth parameter (starting at 1) from the parameters list,
// or "" (empty string) if it did not exist.
func (p Params) Get(n int) string {
	if n > len(p) || n < 1 {
		return ""
	}
	return p[n-1]
}
