package ircdebug

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeConn struct {
	io.Reader
	io.Writer
}

func (pipeConn) Close() error { return nil }

func TestTee(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	r, w := io.Pipe()
	out, sink := io.Pipe()
	go func() {
		_, _ = io.Copy(io.Discard, out)
	}()
	defer sink.Close()

	conn := Tee(pipeConn{Reader: r, Writer: sink}, logger)

	go func() {
		_, _ = w.Write([]byte("PING :tmi.twitch.tv\r\n"))
		_ = w.Close()
	}()
	b, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Equal(t, "PING :tmi.twitch.tv\r\n", string(b))

	_, err = conn.Write([]byte("PONG :tmi.twitch.tv\r\n"))
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "in", entries[0].Data["dir"])
	assert.Equal(t, `"PING :tmi.twitch.tv\r\n"`, entries[0].Message)
	assert.Equal(t, "out", entries[1].Data["dir"])
	assert.Equal(t, logrus.DebugLevel, entries[1].Level)
}
