package sirc

import (
	"runtime"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	c := &Client{Nickname: "me", Logger: logger}
	c.init()
	return c, hook
}

// feed parses line and passes it to the client's protocol handler.
func feed(t *testing.T, c *Client, line string) {
	t.Helper()
	m, err := ParseMessage(line)
	require.NoError(t, err, line)
	c.dispatch(c, &m)
}

func queued(c *Client) []string {
	var lines []string
	for {
		b, ok := c.queue.pop()
		if !ok {
			return lines
		}
		lines = append(lines, string(b))
	}
}

func warnings(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

func TestProtocol_Names(t *testing.T) {
	c, hook := newTestClient(t)

	feed(t, c, ":x 353 me = #chan :alice bob carol")

	ch, ok := c.Channel("#chan")
	require.True(t, ok, "the channel is created for a names reply")
	assert.Equal(t, []string{"alice", "bob", "carol"}, ch.Users())

	feed(t, c, ":x 353 me = #chan :dave")
	feed(t, c, ":x 366 me #chan :End of /NAMES list")
	ch, _ = c.Channel("#chan")
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, ch.Users())

	feed(t, c, ":x 353 me = #chan")
	assert.Len(t, warnings(hook), 1, "short names reply")
}

func TestProtocol_Join(t *testing.T) {
	c, hook := newTestClient(t)

	feed(t, c, ":alice!alice@alice.tmi.twitch.tv JOIN #nowhere")
	assert.Empty(t, c.Channels(), "no state for an unexpected JOIN")
	require.Len(t, warnings(hook), 1)
	assert.ErrorIs(t, hook.LastEntry().Data[logrus.ErrorKey].(error), ErrUnknownChannel)

	c.JoinChannel("#foo")
	feed(t, c, ":alice!alice@alice.tmi.twitch.tv JOIN #foo")
	feed(t, c, ":bob!bob@bob.tmi.twitch.tv JOIN #foo")
	ch, _ := c.Channel("#foo")
	assert.Equal(t, []string{"alice", "bob"}, ch.Users())

	feed(t, c, "JOIN #foo")
	assert.Len(t, warnings(hook), 2, "JOIN without a sender")
}

func TestProtocol_Part(t *testing.T) {
	c, hook := newTestClient(t)

	feed(t, c, ":alice!alice@alice.tmi.twitch.tv PART #nowhere")
	assert.Len(t, warnings(hook), 1)
	assert.Empty(t, c.Channels())

	feed(t, c, ":x 353 me = #foo :alice bob")
	feed(t, c, ":carol!carol@carol.tmi.twitch.tv PART #foo")
	ch, _ := c.Channel("#foo")
	assert.Equal(t, []string{"alice", "bob"}, ch.Users(), "PART for a missing user is a no-op")
	assert.Len(t, warnings(hook), 1, "and is not logged")

	feed(t, c, ":alice!alice@alice.tmi.twitch.tv PART #foo")
	ch, _ = c.Channel("#foo")
	assert.Equal(t, []string{"bob"}, ch.Users())
}

func TestProtocol_Mode(t *testing.T) {
	c, hook := newTestClient(t)

	feed(t, c, ":jtv MODE #nowhere +o alice")
	require.Len(t, warnings(hook), 1)
	assert.ErrorIs(t, hook.LastEntry().Data[logrus.ErrorKey].(error), ErrUnknownChannel)
	assert.Empty(t, c.Channels())

	c.JoinChannel("#foo")
	feed(t, c, ":jtv MODE #foo +o bob")
	before, _ := c.Channel("#foo")

	feed(t, c, ":jtv MODE #foo +o alice")
	ch, _ := c.Channel("#foo")
	assert.Equal(t, []string{"alice", "bob"}, ch.Ops())

	feed(t, c, ":jtv MODE #foo -o alice")
	after, _ := c.Channel("#foo")
	assert.Equal(t, before.Ops(), after.Ops(), "+o then -o restores the operator set")

	feed(t, c, ":jtv MODE #foo -o carol")
	ch, _ = c.Channel("#foo")
	assert.Equal(t, []string{"bob"}, ch.Ops(), "removing an unrecorded op is a no-op")
	assert.Len(t, warnings(hook), 1)

	feed(t, c, ":jtv MODE #foo +v alice")
	assert.Len(t, warnings(hook), 2, "unknown modes are logged")
	ch, _ = c.Channel("#foo")
	assert.Equal(t, []string{"bob"}, ch.Ops())
}

func TestProtocol_Ping(t *testing.T) {
	c, _ := newTestClient(t)
	feed(t, c, "PING :tmi.twitch.tv")
	assert.Equal(t, []string{"PONG :tmi.twitch.tv\r\n"}, queued(c))
}

func TestProtocol_EndOfMOTD(t *testing.T) {
	c, _ := newTestClient(t)
	c.setState(StateLoggingIn)

	for _, line := range []string{
		":tmi.twitch.tv 001 me :Welcome, GLHF!",
		":tmi.twitch.tv 002 me :Your host is tmi.twitch.tv",
		":tmi.twitch.tv 003 me :This server is rather new",
		":tmi.twitch.tv 004 me :-",
		":tmi.twitch.tv 375 me :-",
		":tmi.twitch.tv 372 me :You are in a maze of twisty passages.",
	} {
		feed(t, c, line)
		assert.False(t, c.Ready(), line)
	}

	feed(t, c, ":tmi.twitch.tv 376 me :>")
	assert.True(t, c.Ready())
	assert.Equal(t, StateReady, c.State())

	c.setState(StateClosed)
	feed(t, c, ":tmi.twitch.tv 376 me :>")
	assert.Equal(t, StateClosed, c.State(), "a closed client never becomes ready again")
}

func TestProtocol_Unknown(t *testing.T) {
	c, hook := newTestClient(t)

	feed(t, c, ":tmi.twitch.tv 421 me WHO :Unknown command")
	require.Len(t, warnings(hook), 1)
	assert.Contains(t, hook.LastEntry().Message, "WHO")

	feed(t, c, ":tmi.twitch.tv 999 me :whatever")
	assert.Len(t, warnings(hook), 1, "unknown numerics are ignored")

	feed(t, c, ":tmi.twitch.tv CLEARCHAT #foo :alice")
	assert.Len(t, warnings(hook), 2, "unknown verbs are logged")
	assert.Empty(t, c.Channels())
	assert.Empty(t, queued(c))
}

func TestProtocol_Privmsg(t *testing.T) {
	c, _ := newTestClient(t)

	// no handler set
	feed(t, c, ":alice!alice@alice.tmi.twitch.tv PRIVMSG #foo :hello world")

	type call struct{ channel, user, text string }
	var calls []call
	c.PrivateMessages = PrivateMessageHandlerFunc(func(w MessageWriter, channel, user, text string) {
		calls = append(calls, call{channel, user, text})
		w.WriteMessage(Privmsg(channel, "hi "+user))
	})

	feed(t, c, ":alice!alice@alice.tmi.twitch.tv PRIVMSG #foo :hello world")
	assert.Equal(t, []call{{"#foo", "alice", "hello world"}}, calls)
	assert.Equal(t, []string{"PRIVMSG #foo :hi alice\r\n"}, queued(c))

	feed(t, c, "PRIVMSG #foo :no sender")
	assert.Len(t, calls, 1)
}

func TestProtocol_LoginFailure(t *testing.T) {
	c, hook := newTestClient(t)
	c.setState(StateLoggingIn)

	feed(t, c, ":tmi.twitch.tv NOTICE * :Improperly formatted auth")
	assert.Equal(t, StateLoggingIn, c.State(), "other notices are ignored")

	feed(t, c, ":tmi.twitch.tv NOTICE * :Login unsuccessful")
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, logrus.FatalLevel, hook.LastEntry().Level)
	select {
	case err := <-c.errC:
		assert.ErrorIs(t, err, ErrAuthentication)
	default:
		t.Fatal("expected the client to exit")
	}
}

func TestClient_Queue(t *testing.T) {
	c, _ := newTestClient(t)

	c.JoinChannel("#foo")
	c.QueueChatMessage("#foo", "hello world")
	c.QueueRawMessage([]byte("PRIVMSG #foo :raw"))
	c.QueueRawMessage([]byte("PRIVMSG #foo :crlf\r\n"))
	assert.Equal(t, 4, c.QueueLen())

	ch, ok := c.Channel("#foo")
	require.True(t, ok, "JoinChannel creates state before the server confirms")
	assert.Empty(t, ch.Users())

	assert.Equal(t, []string{
		"JOIN #foo\r\n",
		"PRIVMSG #foo :hello world\r\n",
		"PRIVMSG #foo :raw\r\n",
		"PRIVMSG #foo :crlf\r\n",
	}, queued(c))
}

func TestClient_JoinChannelBeforeNames(t *testing.T) {
	c, _ := newTestClient(t)
	feed(t, c, ":x 353 me = #foo :stale")

	// The names reply may be handled as soon as the JOIN is visible
	// on the queue; it must not be wiped by JoinChannel.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for c.QueueLen() == 0 {
			runtime.Gosched()
		}
		m, _ := ParseMessage(":x 353 me = #foo :alice")
		c.dispatch(c, &m)
	}()
	c.JoinChannel("#foo")
	<-done

	ch, ok := c.Channel("#foo")
	require.True(t, ok)
	assert.Equal(t, []string{"alice"}, ch.Users())
}

func TestClient_WriteMessageError(t *testing.T) {
	c, hook := newTestClient(t)
	c.WriteMessage(&Message{})
	assert.Zero(t, c.QueueLen())
	assert.Len(t, warnings(hook), 1)
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "logging in", StateLoggingIn.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", ConnState(42).String())
}
