/*
Package sirc provides a simple IRC client for Twitch-style chat servers.

The package covers three concerns: parsing and serializing RFC 1459 lines,
keeping track of channel membership and moderators from the server's event
stream, and writing outgoing lines no faster than the chat service allows.

Client

The Client type manages a single connection. It logs in with PASS and NICK,
answers PING, tracks channels, and drains a queue of outgoing lines at
a fixed interval once the server has finished sending its MOTD.

	bot := &sirc.Client{
		Addr:     "irc.chat.twitch.tv:6667",
		Nickname: "hellobot",
		Pass:     "oauth:...",
	}
	bot.JoinChannel("#world")
	bot.QueueChatMessage("#world", "Hello!")
	err := bot.ConnectAndRun(context.Background())

Lines may be queued before ConnectAndRun; nothing is written until the
server is ready, and then only one line per FlushInterval.

Messages

ParseMessage parses a single line into a Message: an optional Prefix, a
Command that is either a Numeric or a Verb, and Params. MarshalText is the
inverse. Only the final parameter may contain spaces, and only when the
message is marked Trailing; constructors such as Privmsg and Pong do this.

	m, err := sirc.ParseMessage(":nick!user@host PRIVMSG #chan :hello world")
	// m.Prefix.Nick == "nick", m.Command == sirc.Verb("PRIVMSG")
	// m.Params == sirc.Params{"#chan", "hello world"}

Handlers

Chat messages are delivered to a PrivateMessageHandler.
Handlers are called synchronously from the read loop because the ordering
of received messages matters. Anything written to the MessageWriter is
placed on the outgoing queue.

Errors

ConnectAndRun returns the reason the connection ended. A program that
wants to be restarted by a supervisor after ErrTransportReset should exit
with ExitCodeTransportReset.
*/
package sirc
