package irctest

import (
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazzpi/sirc"
)

func TestServer_RecordsClientLines(t *testing.T) {
	logger, hook := test.NewNullLogger()
	s := NewServerWithLogger(logger)
	defer s.Close()

	handled := make(chan string, 4)
	s.Handler = func(s *Server, m *sirc.Message) {
		handled <- m.String()
	}

	_, err := s.Write([]byte("NICK hellobot\r\n!garbage\r\nJOIN #foo\r\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(s.Received()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"NICK hellobot", "!garbage", "JOIN #foo"}, s.Received())
	assert.Equal(t, "NICK hellobot", <-handled)
	assert.Equal(t, "JOIN #foo", <-handled)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "irctest", entry.Data["component"])
	assert.ErrorIs(t, entry.Data[logrus.ErrorKey].(error), sirc.ErrMalformedMessage)
}

func TestServer_WriteString(t *testing.T) {
	s := NewServer()
	defer s.Close()

	go s.WriteString("PING :tmi.twitch.tv")
	buf := make([]byte, 64)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "PING :tmi.twitch.tv\r\n", string(buf[:n]))
}

func TestServer_ResetAndClose(t *testing.T) {
	s := NewServer()

	s.Reset()
	_, err := s.Write([]byte("PRIVMSG #foo :hi\r\n"))
	assert.ErrorIs(t, err, syscall.ECONNRESET)

	require.NoError(t, s.Close())
	_, err = s.Read(make([]byte, 8))
	assert.Equal(t, io.EOF, err)
}
