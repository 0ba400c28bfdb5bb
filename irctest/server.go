// Package irctest provides an in-memory IRC server for testing clients.
package irctest

import (
	"bufio"
	"encoding"
	"fmt"
	"io"
	"strings"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/jazzpi/sirc"
)

// NewServer creates a new mock irc server that implements io.ReadWriteCloser.
// Errors are logged to logrus.StandardLogger. Don't forget to close.
func NewServer() *Server {
	return NewServerWithLogger(logrus.StandardLogger())
}

// NewServerWithLogger is like NewServer but logs errors to log.
func NewServerWithLogger(log logrus.FieldLogger) *Server {
	s := &Server{
		log:  log.WithField("component", "irctest"),
		recv: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	s.sendReader, s.sendWriter = io.Pipe()
	s.recvReader, s.recvWriter = io.Pipe()

	// should exit when Close() is called
	go s.read()
	go s.write()
	return s
}

// Server is the client's end of a fake connection. Lines the client writes
// are recorded and passed to Handler; lines given to WriteString are read
// by the client.
type Server struct {

	// Handler is called for every line the client writes, in order.
	// It must be set before the client connects.
	Handler func(s *Server, m *sirc.Message)

	log logrus.FieldLogger

	mu       sync.Mutex
	received []string
	reset    bool

	closeOnce sync.Once
	recv      chan []byte
	done      chan struct{}

	recvReader *io.PipeReader
	recvWriter *io.PipeWriter

	sendReader *io.PipeReader
	sendWriter *io.PipeWriter
}

// Read is how the client reads lines from the server
func (s *Server) Read(p []byte) (int, error) {
	return s.sendReader.Read(p)
}

// Write is how a client sends messages to the server
func (s *Server) Write(p []byte) (int, error) {
	s.mu.Lock()
	reset := s.reset
	s.mu.Unlock()
	if reset {
		return 0, fmt.Errorf("irctest: write: %w", syscall.ECONNRESET)
	}

	b := append([]byte(nil), p...)
	select {
	case s.recv <- b:
		return len(p), nil
	case <-s.done:
		return 0, io.ErrClosedPipe
	}
}

// Close ends the connection. The client sees io.EOF.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.recvWriter.Close()
		_ = s.sendWriter.Close()
	})
	return nil
}

// Reset makes every following client write fail with ECONNRESET,
// as if the peer had reset the connection.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset = true
}

// Received returns the lines written by the client so far, without terminators.
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// WriteString sends a line to the client. "\r\n" is appended when missing.
// It blocks until the client reads it.
func (s *Server) WriteString(str string) {
	if !strings.HasSuffix(str, "\r\n") {
		str = str + "\r\n"
	}
	if _, err := s.sendWriter.Write([]byte(str)); err != nil {
		s.log.WithError(err).Warn("write to client failed")
	}
}

// WriteMessage sends messages from the server to the client
func (s *Server) WriteMessage(m encoding.TextMarshaler) {
	b, err := m.MarshalText()
	if err != nil {
		s.log.WithError(err).Warn("marshal failed")
		return
	}
	if _, err := s.sendWriter.Write(b); err != nil {
		s.log.WithError(err).Warn("write to client failed")
	}
}

func (s *Server) read() {
	scanner := bufio.NewScanner(s.recvReader)

	for scanner.Scan() {
		line := scanner.Text()
		s.mu.Lock()
		s.received = append(s.received, line)
		s.mu.Unlock()

		m, err := sirc.ParseMessage(line)
		if err != nil {
			s.log.WithError(err).Warn("client sent an unparsable line")
			continue
		}
		if s.Handler != nil {
			s.Handler(s, &m)
		}
	}
}

func (s *Server) write() {
	for {
		select {
		case b := <-s.recv:
			if _, err := s.recvWriter.Write(b); err != nil {
				s.log.WithError(err).Warn("recording client write failed")
			}
		case <-s.done:
			return
		}
	}
}
