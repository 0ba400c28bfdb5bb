package sirc

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// A Client manages a connection to a Twitch-style IRC server.
// It reads lines from the connection, keeps track of channel membership
// and moderators, answers PINGs, and writes queued lines at a fixed rate
// once the server is ready.
//
// Outgoing messages may be queued before ConnectAndRun is called;
// they are delivered once the server signals readiness.
// A Client is used for a single connection. To reconnect, create a new Client.
type Client struct {

	// The address ("host:port") of the IRC server.
	// Addr is only used when DialFn is nil.
	Addr string

	// The nickname used by the Client when connecting (required).
	Nickname string

	// The connection password (optional). On twitch this is the "oauth:" token.
	Pass string

	// DialFn returns the transport. The returned connection can be any
	// io.ReadWriteCloser; the only requirement is that the stream consists
	// of CRLF-delimited IRC messages.
	//
	// When DialFn is nil, Addr is dialed over plain TCP.
	DialFn func() (io.ReadWriteCloser, error)

	// FlushInterval is the delay between two lines written from the outgoing queue.
	// Defaults to DefaultFlushInterval.
	FlushInterval time.Duration

	// LoginTimeout, when positive, makes ConnectAndRun fail with ErrLoginTimeout
	// if the server has not signaled readiness in time. Zero waits forever.
	LoginTimeout time.Duration

	// MalformedBurst and MalformedRate bound how many malformed lines are
	// tolerated before ConnectAndRun fails with ErrCorruptStream.
	// The limit is disabled when MalformedBurst is zero, in which case
	// malformed lines are dropped forever.
	MalformedBurst int
	MalformedRate  rate.Limit

	// Logger receives all client logging. If nil, logrus.StandardLogger is used.
	Logger logrus.FieldLogger

	// PrivateMessages is called for each PRIVMSG received. It may be nil.
	PrivateMessages PrivateMessageHandler

	initOnce sync.Once
	log      logrus.FieldLogger
	channels *channelDirectory
	queue    *outboundQueue
	state    atomic.Int32
	running  atomic.Bool
	conn     *conn

	// errC is a buffered channel of errors.
	// Only the first error sent to the channel will be used.
	errC chan error
}

func (c *Client) init() {
	c.initOnce.Do(func() {
		base := c.Logger
		if base == nil {
			base = logrus.StandardLogger()
		}
		c.log = base.WithFields(logrus.Fields{
			"session": uuid.NewString(),
			"nick":    c.Nickname,
		})
		c.channels = newChannelDirectory()
		c.queue = &outboundQueue{}
		c.errC = make(chan error, 1)
	})
}

// ConnectAndRun establishes a connection to the server, logs in with
// PASS (if set) and NICK, and then processes incoming lines and drains the
// outgoing queue until the connection ends.
//
// ConnectAndRun always returns a non-nil error describing why the
// connection ended: io.EOF when the server closed it, ErrAuthentication,
// ErrTransportReset, ErrLoginTimeout, ErrCorruptStream, or ctx.Err() when
// ctx was canceled. Pending queued lines are dropped.
func (c *Client) ConnectAndRun(ctx context.Context) error {
	if c.Nickname == "" {
		panic("client nickname cannot be empty")
	}
	c.init()

	if !c.running.CompareAndSwap(false, true) {
		return errors.New("client already connected; create a new Client to reconnect")
	}

	dial := c.DialFn
	if dial == nil {
		if c.Addr == "" {
			panic("ConnectAndRun: Addr cannot be empty when DialFn is nil")
		}
		dial = func() (io.ReadWriteCloser, error) {
			return net.Dial("tcp", c.Addr)
		}
	}
	interval := c.FlushInterval
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	c.setState(StateConnecting)
	rwc, err := dial()
	if err != nil {
		c.setState(StateClosed)
		return fmt.Errorf("dial: %w", err)
	}

	c.conn = &conn{
		rwc:     rwc,
		log:     c.log,
		handler: wrap(HandlerFunc(c.dispatch), metricsMiddleware),
		writer:  c,
	}
	if c.MalformedBurst > 0 {
		c.conn.breaker = rate.NewLimiter(c.MalformedRate, c.MalformedBurst)
	}

	mainctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	if err := c.conn.login(c.Nickname, c.Pass); err != nil {
		c.shutdown()
		return fmt.Errorf("login: %w", err)
	}
	c.setState(StateLoggingIn)

	wg.Add(1)
	go func() {
		defer wg.Done()
		err := c.conn.readLoop()
		if isReset(err) {
			err = fmt.Errorf("%w: %v", ErrTransportReset, err)
		}
		c.exit(err)
	}()

	f := &flusher{
		queue: c.queue,
		ready: c.Ready,
		send:  c.conn.send,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := f.run(mainctx, interval)
		if err == nil || mainctx.Err() != nil {
			return
		}
		if isReset(err) {
			c.log.WithError(err).Log(logrus.FatalLevel, "Connection reset by peer")
			err = fmt.Errorf("%w: %v", ErrTransportReset, err)
		}
		c.exit(fmt.Errorf("flush: %w", err))
	}()

	if c.LoginTimeout > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			t := time.NewTimer(c.LoginTimeout)
			defer t.Stop()
			select {
			case <-mainctx.Done():
			case <-t.C:
				if !c.Ready() {
					c.log.Errorf("Server did not finish login within %s", c.LoginTimeout)
					c.exit(ErrLoginTimeout)
				}
			}
		}()
	}

	select {
	case err = <-c.errC:
	case <-ctx.Done():
		err = ctx.Err()
	}

	cancel()
	c.shutdown()
	wg.Wait()
	return err
}

// shutdown closes the transport and drops anything still queued.
func (c *Client) shutdown() {
	c.setState(StateClosed)
	_ = c.conn.close()
	c.queue.discard()
}

// exit requests ConnectAndRun to return with err. Only the first such error
// is returned; any successive calls to exit will drop the error.
func (c *Client) exit(err error) {
	select {
	case c.errC <- err:
	default:
	}
}

// WriteMessage implements MessageWriter.
// It places m on the outgoing queue; the line is written on a later tick
// once the server is ready. Marshaling errors are logged.
func (c *Client) WriteMessage(m encoding.TextMarshaler) {
	c.init()
	b, err := m.MarshalText()
	if err != nil {
		c.log.WithError(err).Warn("Dropping outgoing message")
		return
	}
	c.queue.push(withCRLF(b))
}

// JoinChannel queues a JOIN for channel and immediately creates empty
// membership state for it, without waiting for the server to confirm.
func (c *Client) JoinChannel(channel string) {
	c.init()
	c.channels.reset(channel)
	c.WriteMessage(Join(channel))
}

// QueueChatMessage queues a PRIVMSG with text to channel.
func (c *Client) QueueChatMessage(channel, text string) {
	c.WriteMessage(Privmsg(channel, text))
}

// QueueRawMessage queues an already-serialized line.
// It is an escape hatch for callers that build their own lines.
func (c *Client) QueueRawMessage(line []byte) {
	c.WriteMessage(Raw(line))
}

// QueueLen returns the number of lines waiting to be written.
func (c *Client) QueueLen() int {
	c.init()
	return c.queue.len()
}

// Channel returns a snapshot of the membership state of channel.
func (c *Client) Channel(channel string) (Channel, bool) {
	c.init()
	return c.channels.get(channel)
}

// Channels returns the names of all known channels, sorted.
func (c *Client) Channels() []string {
	c.init()
	return c.channels.names()
}

// State returns the client's connection state.
func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

// Ready reports whether the server accepts outgoing traffic.
func (c *Client) Ready() bool {
	return c.State() == StateReady
}

func (c *Client) setState(s ConnState) {
	c.state.Store(int32(s))
}

// ConnState is the connection state of a Client.
type ConnState int32

const (
	StateConnecting ConnState = iota // dialing; also the state of a new Client
	StateLoggingIn                   // PASS/NICK sent, waiting for the end of the MOTD
	StateReady                       // the outgoing queue is being drained
	StateClosed                      // the connection is gone
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateLoggingIn:
		return "logging in"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
