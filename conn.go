package sirc

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
	"syscall"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var crlf = []byte("\r\n")

// conn owns the transport. It frames incoming bytes into CRLF-terminated
// lines, parses them, and calls handler once per parsed line.
// Outgoing lines are logged and written by send.
type conn struct {
	rwc     io.ReadWriteCloser
	log     logrus.FieldLogger
	handler Handler
	writer  MessageWriter

	// breaker, when set, limits how many malformed lines are tolerated
	// before the stream is considered corrupted.
	breaker *rate.Limiter

	wmu       sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// login emits PASS (when a password is set) followed by NICK.
// Nothing further happens until the server responds.
func (c *conn) login(nick, pass string) error {
	if pass != "" {
		if err := c.sendMessage(Pass(pass)); err != nil {
			return err
		}
	}
	return c.sendMessage(Nick(nick))
}

func (c *conn) sendMessage(m *Message) error {
	b, err := m.MarshalText()
	if err != nil {
		return err
	}
	return c.send(b)
}

// send logs line and writes it to the transport.
// Writes are serialized so concurrent callers never interleave lines.
func (c *conn) send(line []byte) error {
	c.log.Infof("> %s", bytes.TrimSuffix(line, crlf))

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.rwc.Write(line); err != nil {
		return err
	}
	linesSent.Inc()
	return nil
}

// readLoop reads until the transport fails or is closed.
// It returns io.EOF when the peer closed the connection cleanly.
// Lines that cannot be decoded or parsed, or that exceed maxLineLength,
// are logged and dropped.
func (c *conn) readLoop() error {
	f := &lineFramer{max: maxLineLength}
	s := bufio.NewScanner(c.rwc)
	s.Buffer(make([]byte, 0, 4096), f.max+len(crlf))
	s.Split(f.split)
	for s.Scan() {
		if err := c.dropOverlong(f); err != nil {
			return err
		}
		if err := c.handleLine(s.Bytes()); err != nil {
			return err
		}
	}
	if err := c.dropOverlong(f); err != nil {
		return err
	}
	// scanner.Err() returns nil when the reader error was EOF, but the caller
	// wants to know when the error is EOF in order to determine if the
	// connection was terminated by the peer.
	if err := s.Err(); err != nil {
		return err
	}
	return io.EOF
}

// dropOverlong reports the lines f discarded since the last call.
func (c *conn) dropOverlong(f *lineFramer) error {
	for ; f.dropped > 0; f.dropped-- {
		c.log.WithError(ErrMalformedMessage).Warnf("dropping line longer than %d bytes", f.max)
		linesDropped.WithLabelValues("length").Inc()
		if err := c.malformed(); err != nil {
			return err
		}
	}
	return nil
}

// handleLine decodes, logs, parses and dispatches one line.
// It only returns an error when the malformed-line limit was exceeded.
func (c *conn) handleLine(line []byte) error {
	if len(line) == 0 {
		return nil
	}
	if !utf8.Valid(line) {
		c.log.WithError(ErrDecode).Warnf("dropping line %q", line)
		linesDropped.WithLabelValues("decode").Inc()
		return c.malformed()
	}

	text := string(line)
	c.log.Infof("< %s", text)

	m, err := ParseMessage(text)
	if err != nil {
		// A parse error might be caused by a malformed line from the remote server
		// or a bug in our message parser. Neither is a reason to stop reading.
		c.log.WithError(err).Warn("dropping line")
		linesDropped.WithLabelValues("parse").Inc()
		return c.malformed()
	}
	c.handler.SpeakIRC(c.writer, &m)
	return nil
}

func (c *conn) malformed() error {
	if c.breaker != nil && !c.breaker.Allow() {
		return ErrCorruptStream
	}
	return nil
}

func (c *conn) close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.rwc.Close()
	})
	return c.closeErr
}

// maxLineLength bounds a single incoming line, without its terminator.
const maxLineLength = 64 * 1024

// lineFramer splits a stream into lines terminated by "\r\n", without the
// terminator. A bare "\n" does not end a line. Unterminated bytes at EOF
// are discarded.
//
// Lines longer than max are skipped up to the next "\r\n" and counted in
// dropped instead of being returned, so the scanner buffer never fills up.
type lineFramer struct {
	max        int
	discarding bool
	dropped    int
}

func (f *lineFramer) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, crlf); i >= 0 {
		if f.discarding || i > f.max {
			f.discarding = false
			f.dropped++
			return i + len(crlf), nil, nil
		}
		return i + len(crlf), data[:i], nil
	}
	if atEOF {
		if f.discarding {
			f.discarding = false
			f.dropped++
		}
		if len(data) > 0 {
			return len(data), nil, nil
		}
		return 0, nil, nil
	}
	if len(data) > f.max {
		// a trailing CR may be the first half of the terminator
		n := len(data)
		if data[n-1] == '\r' {
			n--
		}
		f.discarding = true
		return n, nil, nil
	}
	return 0, nil, nil
}

// isReset reports whether err was caused by the peer resetting the connection.
func isReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET)
}
