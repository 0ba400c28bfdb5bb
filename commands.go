package sirc

// Pass specifies the connection password.
// On twitch this is the "oauth:" token.
func Pass(password string) *Message {
	return NewMessage(Verb(CmdPass), password)
}

// Nick constructs a nickname command.
func Nick(name string) *Message {
	return NewMessage(Verb(CmdNick), name)
}

// Join constructs a channel join command.
func Join(channel string) *Message {
	return NewMessage(Verb(CmdJoin), channel)
}

// Privmsg constructs a new Message of type PRIVMSG,
// with target being the intended target channel or nickname,
// and text being the message body. text may contain spaces.
func Privmsg(target, text string) *Message {
	return NewTrailingMessage(Verb(CmdPrivmsg), target, text)
}

// Pong builds the reply to a PING from the connection.
// The reply token must be the same as the original PING token.
func Pong(token string) *Message {
	return NewTrailingMessage(Verb(CmdPong), token)
}

// Raw is an already-serialized IRC line.
// It is written as-is, with "\r\n" appended when missing.
type Raw []byte

// MarshalText implements encoding.TextMarshaler.
func (r Raw) MarshalText() ([]byte, error) {
	return withCRLF(r), nil
}

func withCRLF(b []byte) []byte {
	if len(b) >= 2 && b[len(b)-2] == '\r' && b[len(b)-1] == '\n' {
		return b
	}
	out := make([]byte, len(b), len(b)+2)
	copy(out, b)
	return append(out, '\r', '\n')
}
