package sirc

import "errors"

// ExitCodeTransportReset is the process exit status a program should use
// when ConnectAndRun returns an error matching ErrTransportReset, so that a
// supervising process can detect the condition and restart the client.
const ExitCodeTransportReset = 104

var (
	// ErrMalformedMessage indicates a line with no discoverable command.
	// The line is logged and dropped; the connection continues.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrDecode indicates a line that was not valid UTF-8.
	// Like ErrMalformedMessage it is logged and the line is dropped.
	ErrDecode = errors.New("line is not valid utf-8")

	// ErrUnknownChannel indicates the server referenced a channel the
	// client never joined. It is logged and ignored.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrAuthentication is returned when the server rejects the login.
	// The connection is closed.
	ErrAuthentication = errors.New("login unsuccessful")

	// ErrTransportReset is returned when the peer reset the connection
	// while the client was writing queued messages.
	ErrTransportReset = errors.New("connection reset by peer")

	// ErrLoginTimeout is returned when Client.LoginTimeout elapses before the
	// server signals readiness.
	ErrLoginTimeout = errors.New("login timed out")

	// ErrCorruptStream is returned when malformed lines arrive faster than
	// the client's malformed-line limit allows.
	ErrCorruptStream = errors.New("too many malformed lines")
)
