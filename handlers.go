package sirc

import (
	"encoding"
)

// A Handler responds to an IRC message.
//
// Handlers are called synchronously from the read loop, one line at a time,
// because the ordering of incoming messages matters.
// Handlers should avoid modifying the provided Message.
type Handler interface {
	SpeakIRC(MessageWriter, *Message)
}

// The HandlerFunc type is an adapter to allow the usage of ordinary functions
// as handlers, following the same pattern as http.HandlerFunc.
type HandlerFunc func(MessageWriter, *Message)

// SpeakIRC calls f(w, m).
func (f HandlerFunc) SpeakIRC(w MessageWriter, m *Message) {
	f(w, m)
}

// MessageWriter contains methods for sending IRC messages to a server.
type MessageWriter interface {

	// WriteMessage places the message on the client's outgoing message queue.
	// The given encoding.TextMarshaler MUST return a byte slice which conforms to the IRC protocol.
	// If the slice does not end in "\r\n", then the sequence will be appended.
	WriteMessage(encoding.TextMarshaler)
}

// A PrivateMessageHandler is called for every PRIVMSG the client receives.
// user is the nickname of the sender.
type PrivateMessageHandler interface {
	HandlePrivateMessage(w MessageWriter, channel, user, text string)
}

// The PrivateMessageHandlerFunc type is an adapter to allow the usage of
// ordinary functions as a PrivateMessageHandler.
type PrivateMessageHandlerFunc func(w MessageWriter, channel, user, text string)

// HandlePrivateMessage calls f(w, channel, user, text).
func (f PrivateMessageHandlerFunc) HandlePrivateMessage(w MessageWriter, channel, user, text string) {
	f(w, channel, user, text)
}

type middleware func(Handler) Handler

func wrap(h Handler, mw ...middleware) Handler {
	if len(mw) < 1 {
		return h
	}

	wrapped := h
	// loop in reverse to preserve middleware order
	for i := len(mw) - 1; i >= 0; i-- {
		wrapped = mw[i](wrapped)
	}

	return wrapped
}

// metricsMiddleware counts every incoming message by command.
func metricsMiddleware(next Handler) Handler {
	return HandlerFunc(func(mw MessageWriter, m *Message) {
		linesReceived.WithLabelValues(m.Command.String()).Inc()
		next.SpeakIRC(mw, m)
	})
}
