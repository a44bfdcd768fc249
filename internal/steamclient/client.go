// Package steamclient is the protocol engine of a CM connection: it dispatches
// inbound messages to their handlers, owns the connection state (session key,
// encryption state, steam id) and frames outbound messages.
package steamclient

import (
	"context"
	"crypto/rsa"
	"errors"
	"io"

	"github.com/blukai/steamcm/internal/handshake"
	"github.com/blukai/steamcm/internal/protocol"
	"github.com/phuslu/log"
)

var ErrConnectionClosed = errors.New("connection closed")

// Transport accepts complete outbound messages (header + body).
type Transport interface {
	SendFrame(frame []byte) error
}

type Config struct {
	Events Events
	Logger *log.Logger

	// PublicKey encrypts the session key. nil selects the key of the public
	// universe.
	PublicKey *rsa.PublicKey
	// Random is the source of the session key. nil selects crypto/rand.
	Random io.Reader

	// Scheduler drives the heartbeat. nil selects a scheduler that delivers
	// firings into Run.
	Scheduler Scheduler
}

// Client is not safe for concurrent use. every call that dispatches or sends
// (HandleFrame, Handle, LogOn, ...) mutates connection state, they must be
// serialized by the owner. Run does that for inbound frames, heartbeat firings
// and tasks posted with Do; callbacks run inside Run and may call back into
// the client.
type Client struct {
	logger *log.Logger
	events Events

	transport Transport
	scheduler Scheduler
	tasks     chan func()

	negotiator *handshake.Negotiator
	steamID    protocol.SteamID
	sessionID  int32

	cancelHeartbeat func()
}

func NewClient(transport Transport, config Config) *Client {
	logger := config.Logger
	// if logger is nil (which might be true in tests) => use default, but
	// silenced logger
	if logger == nil {
		tmp := log.DefaultLogger
		logger = &tmp
		logger.Writer = &log.IOWriter{Writer: io.Discard}
	}

	c := &Client{
		logger: logger,
		events: config.Events,

		transport: transport,
		tasks:     make(chan func()),

		negotiator: handshake.NewNegotiator(config.PublicKey, config.Random),
	}

	c.scheduler = config.Scheduler
	if c.scheduler == nil {
		c.scheduler = &loopScheduler{tasks: c.tasks}
	}

	return c
}

func (c *Client) EncryptionState() handshake.State {
	return c.negotiator.State()
}

// SessionKey is nil until the server asked for encryption.
func (c *Client) SessionKey() []byte {
	return c.negotiator.SessionKey()
}

func (c *Client) SteamID() protocol.SteamID {
	return c.steamID
}

func (c *Client) SessionID() int32 {
	return c.sessionID
}

// Close stops the heartbeat. it does not touch the transport, which is owned
// by the caller.
func (c *Client) Close() {
	c.stopHeartbeat()
}

// Do hands task to Run, which calls it between dispatches. that's how code
// outside of callbacks gets to call into the client (LogOn, JoinChat, ...).
// Do blocks until task was picked up or ctx is done.
func (c *Client) Do(ctx context.Context, task func()) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case c.tasks <- task:
		return nil
	}
}

// Run dispatches frames and scheduled tasks on the calling goroutine until ctx
// is done, frames is closed or a frame fails to dispatch. a dispatch error is
// returned as is (check for protocol.ErrProtocolViolation); the connection is
// not usable afterwards.
func (c *Client) Run(ctx context.Context, frames <-chan []byte) error {
	defer c.stopHeartbeat()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-frames:
			if !ok {
				return ErrConnectionClosed
			}
			if err := c.HandleFrame(frame); err != nil {
				return err
			}
		case task := <-c.tasks:
			task()
		}
	}
}
