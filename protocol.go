package sirc

import (
	"strings"

	"github.com/sirupsen/logrus"
)

type protocolFunc func(c *Client, w MessageWriter, m *Message)

// protocol maps each command the client understands to its handler.
// Numerics missing from the table are ignored; unknown verbs are logged.
var protocol = map[Command]protocolFunc{
	Numeric(RplWelcome):           ignore,
	Numeric(RplYourHost):          ignore,
	Numeric(RplCreated):           ignore,
	Numeric(RplMyInfo):            ignore,
	Numeric(RplMOTD):              ignore,
	Numeric(RplMOTDStart):         ignore,
	Numeric(RplEndOfNames):        ignore,
	Numeric(RplNamReply):          (*Client).handleNames,
	Numeric(RplEndOfMOTD):         (*Client).handleEndOfMOTD,
	Numeric(RplErrUnknownCommand): (*Client).handleUnknownCommand,
	Verb(CmdPrivmsg):              (*Client).handlePrivmsg,
	Verb(CmdPing):                 (*Client).handlePing,
	Verb(CmdJoin):                 (*Client).handleJoin,
	Verb(CmdPart):                 (*Client).handlePart,
	Verb(CmdMode):                 (*Client).handleMode,
	Verb(CmdNotice):               (*Client).handleNotice,
}

func ignore(*Client, MessageWriter, *Message) {}

// dispatch is the client's Handler for every parsed line.
func (c *Client) dispatch(w MessageWriter, m *Message) {
	if h, ok := protocol[m.Command]; ok {
		h(c, w, m)
		return
	}
	if m.Command.IsNumeric() {
		return
	}
	c.log.Warnf("Server sent an unknown command: %s", m)
}

// sender returns the nickname from the message prefix.
func sender(m *Message) (string, bool) {
	if m.Prefix == nil || m.Prefix.Nick == "" {
		return "", false
	}
	return m.Prefix.Nick, true
}

// handleNames handles twitch's form of RPL_NAMREPLY:
//
//	:<server> 353 <nick> = <channel> :<nick> <nick> ...
//
// The channel is created if it is not known yet.
func (c *Client) handleNames(_ MessageWriter, m *Message) {
	if len(m.Params) < 4 {
		c.log.Warnf("Server sent a short names reply: %s", m)
		return
	}
	channel := m.Params.Get(3)
	c.channels.ensure(channel)
	_ = c.channels.update(channel, func(ch *Channel) {
		for _, nick := range strings.Fields(m.Params.Get(4)) {
			ch.addUser(nick)
		}
	})
}

// handleEndOfMOTD marks the server ready for outgoing traffic.
func (c *Client) handleEndOfMOTD(MessageWriter, *Message) {
	if c.state.CompareAndSwap(int32(StateLoggingIn), int32(StateReady)) {
		c.log.Info("Server is ready")
	}
}

func (c *Client) handleUnknownCommand(_ MessageWriter, m *Message) {
	c.log.Warnf("Server responded with 421 (Unknown command): %s", m.Params.Get(2))
}

func (c *Client) handlePrivmsg(w MessageWriter, m *Message) {
	user, ok := sender(m)
	if !ok || len(m.Params) < 2 {
		c.log.Warnf("Server sent a malformed PRIVMSG: %s", m)
		return
	}
	if c.PrivateMessages != nil {
		c.PrivateMessages.HandlePrivateMessage(w, m.Params.Get(1), user, m.Params.Get(2))
	}
}

// handlePing queues the PONG like any other line; it goes out on the next tick.
func (c *Client) handlePing(w MessageWriter, m *Message) {
	w.WriteMessage(Pong(m.Params.Get(1)))
}

func (c *Client) handleJoin(_ MessageWriter, m *Message) {
	user, ok := sender(m)
	if !ok {
		c.log.Warnf("Server sent a JOIN without a sender: %s", m)
		return
	}
	channel := m.Params.Get(1)
	if err := c.channels.update(channel, func(ch *Channel) { ch.addUser(user) }); err != nil {
		c.log.WithError(err).Warnf("Server sent a JOIN for an unknown channel: %s JOIN %s", user, channel)
	}
}

// handlePart removes the user. Twitch sometimes sends PARTs for users
// it never announced, so a missing user is ignored.
func (c *Client) handlePart(_ MessageWriter, m *Message) {
	user, ok := sender(m)
	if !ok {
		c.log.Warnf("Server sent a PART without a sender: %s", m)
		return
	}
	channel := m.Params.Get(1)
	if err := c.channels.update(channel, func(ch *Channel) { ch.removeUser(user) }); err != nil {
		c.log.WithError(err).Warnf("Server sent a PART for an unknown channel: %s PART %s", user, channel)
	}
}

// handleMode tracks moderators: MODE <channel> (+o|-o) <nick>.
func (c *Client) handleMode(_ MessageWriter, m *Message) {
	channel, mode, user := m.Params.Get(1), m.Params.Get(2), m.Params.Get(3)

	var change func(ch *Channel)
	switch mode {
	case modeOpAdd:
		change = func(ch *Channel) { ch.addOp(user) }
	case modeOpRemove:
		change = func(ch *Channel) { ch.removeOp(user) }
	default:
		c.log.Warnf("Server sent an unknown MODE: %s", m)
		return
	}
	if err := c.channels.update(channel, change); err != nil {
		c.log.WithError(err).Warnf("Server sent a MODE for an unknown channel: %s MODE %s %s", channel, mode, user)
	}
}

// handleNotice treats twitch's login rejection as fatal and closes the connection.
// Other notices are ignored.
func (c *Client) handleNotice(_ MessageWriter, m *Message) {
	if !paramsEqual(m.Params, loginFailure) {
		return
	}
	c.log.WithError(ErrAuthentication).Log(logrus.FatalLevel, "Login unsuccessful - check your nick and pass")
	c.setState(StateClosed)
	c.exit(ErrAuthentication)
	if c.conn != nil {
		_ = c.conn.close()
	}
}

func paramsEqual(a, b Params) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
