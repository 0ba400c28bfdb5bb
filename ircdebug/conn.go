/*
Package ircdebug contains helpers that are useful while developing against a chat server.
*/
package ircdebug

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Tee returns a new io.ReadWriteCloser that logs every chunk read from or
// written to rwc at debug level, with a "dir" field of "in" or "out".
//
// Unlike the client's own line logging, chunks are logged exactly as they
// crossed the transport, before any line framing. This is mainly useful for
// diagnosing framing problems.
func Tee(rwc io.ReadWriteCloser, log logrus.FieldLogger) io.ReadWriteCloser {
	return &debugConn{ReadWriteCloser: rwc, log: log}
}

type debugConn struct {
	io.ReadWriteCloser
	log logrus.FieldLogger

	// reads and writes happen on different goroutines; mu keeps their
	// log entries from interleaving mid-chunk.
	mu sync.Mutex
}

func (dc *debugConn) Read(p []byte) (int, error) {
	n, err := dc.ReadWriteCloser.Read(p)
	if n > 0 {
		dc.logChunk("in", p[:n])
	}
	return n, err
}

func (dc *debugConn) Write(p []byte) (int, error) {
	n, err := dc.ReadWriteCloser.Write(p)
	if n > 0 {
		dc.logChunk("out", p[:n])
	}
	return n, err
}

func (dc *debugConn) logChunk(dir string, b []byte) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.log.WithField("dir", dir).Debugf("%q", b)
}
