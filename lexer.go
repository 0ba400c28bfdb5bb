package sirc

import (
	"fmt"
	"strings"
)

const (
	delimParam    = ' ' // the delimiter token for parameters
	startPrefix   = ':' // the delimiter for the prefix
	startTrailing = ':' // the delimiter for the trailing param
)

// ParseError is returned when a line cannot be parsed as a Message.
// It wraps ErrMalformedMessage.
type ParseError struct {
	Line   string // the offending line, without the terminator
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %q", ErrMalformedMessage, e.Reason, e.Line)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedMessage
}

// lexer holds the state of the scanner.
// It only ever moves forward through the input.
type lexer struct {
	input string // the string being scanned.
	start int    // start position of this item.
	pos   int    // current position in the input.
}

// peek returns but does not consume the next byte in the input, or 0 at the end.
// All delimiters in the grammar are single-byte ascii.
func (l *lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *lexer) ignore() {
	l.start = l.pos
}

// ignoreSpaces consumes a run of SPACE characters.
func (l *lexer) ignoreSpaces() {
	for l.peek() == delimParam {
		l.pos++
	}
	l.ignore()
}

// acceptUntilSpace consumes everything up to the next SPACE or the end of input
// and returns it.
func (l *lexer) acceptUntilSpace() string {
	for !l.eof() && l.peek() != delimParam {
		l.pos++
	}
	s := l.input[l.start:l.pos]
	l.ignore()
	return s
}

// ParseMessage parses a single line (without the CR-LF terminator) as
// defined in RFC 1459 section 2.3.1:
//
//	[':' prefix SPACE] (command | 3DIGIT) params
//
// An error wrapping ErrMalformedMessage is returned when no command can be found.
func ParseMessage(line string) (Message, error) {
	var m Message
	l := &lexer{input: line}

	if l.peek() == startPrefix {
		end := strings.IndexByte(line, delimParam)
		if end >= 0 {
			p, err := ParsePrefix(line[1:end])
			if err != nil {
				return Message{}, &ParseError{Line: line, Reason: err.Error()}
			}
			m.Prefix = &p
			l.pos = end
			l.ignoreSpaces()
		}
	}

	cmd, ok := lexCommand(l)
	if !ok {
		return Message{}, &ParseError{Line: line, Reason: "no command"}
	}
	m.Command = cmd
	m.Params, m.Trailing = lexParams(l)
	return m, nil
}

// lexCommand scans a command. Three leading decimal digits form a numeric;
// otherwise the command is a run of ascii letters which must be followed by SPACE.
func lexCommand(l *lexer) (Command, bool) {
	rest := l.input[l.pos:]
	if len(rest) >= 3 && isDigit(rest[0]) && isDigit(rest[1]) && isDigit(rest[2]) {
		n := int(rest[0]-'0')*100 + int(rest[1]-'0')*10 + int(rest[2]-'0')
		l.pos += 3
		l.ignore()
		return Numeric(n), true
	}

	for !l.eof() && isLetter(l.peek()) {
		l.pos++
	}
	if l.pos == l.start || l.peek() != delimParam {
		return Command{}, false
	}
	verb := l.input[l.start:l.pos]
	l.pos++ // the SPACE that ended the verb
	l.ignore()
	return Verb(verb), true
}

// lexParams scans the remaining input as parameters, left to right.
// It reports whether the final parameter was introduced by the trailing sentinel.
// Empty or all-space input yields no parameters.
func lexParams(l *lexer) (Params, bool) {
	var params Params
	for {
		l.ignoreSpaces()
		if l.eof() {
			return params, false
		}
		if l.peek() == startTrailing {
			return append(params, l.input[l.pos+1:]), true
		}
		params = append(params, l.acceptUntilSpace())
	}
}

// ParsePrefix parses a prefix of the form nick[!user][@host].
// User and host are optional and independently present.
func ParsePrefix(s string) (Prefix, error) {
	var p Prefix
	nickEnd := strings.IndexAny(s, "!@")
	if nickEnd < 0 {
		nickEnd = len(s)
	}
	p.Nick = s[:nickEnd]
	if p.Nick == "" {
		return Prefix{}, fmt.Errorf("empty nickname in prefix %q", s)
	}

	rest := s[nickEnd:]
	if strings.HasPrefix(rest, "!") {
		rest = rest[1:]
		userEnd := strings.IndexByte(rest, '@')
		if userEnd < 0 {
			userEnd = len(rest)
		}
		p.User = rest[:userEnd]
		rest = rest[userEnd:]
	}
	if strings.HasPrefix(rest, "@") {
		p.Host = rest[1:]
	}
	return p, nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
