//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=mocks/mock_frontend.go -package=mocks
package relay

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"
)

// Frontend is the user interface a Client reports to.
// Its methods are called from the client's reader goroutine and must not block for long.
type Frontend interface {
	// OnIncomingChat is called for a chat line relayed from another participant.
	OnIncomingChat(name, text string)
	// OnSystemNotice is called for join and leave announcements.
	OnSystemNotice(text string)
	// OnConnectionClosed is called once when the connection to the server ends.
	// err is nil when the server closed the stream or the client shut down.
	OnConnectionClosed(err error)
}

// Client bridges one server connection to a Frontend.
type Client struct {
	conn     *Conn
	frontend Frontend
	logger   Logger

	closeOnce sync.Once
}

// Dial connects to the server at addr and sends name as the handshake.
// Connection options such as LoggerOption and PollIntervalOption are applied
// to the underlying Conn; the frame handler is set by the client.
func Dial(ctx context.Context, addr, name string, frontend Frontend, opts ...Option) (*Client, error) {
	var dialer net.Dialer
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}

	client, err := NewClient(raw, name, frontend, opts...)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	return client, nil
}

// NewClient wraps an established connection and queues name as its first frame.
func NewClient(raw net.Conn, name string, frontend Frontend, opts ...Option) (*Client, error) {
	c := &Client{frontend: frontend}

	conn, err := NewConn(raw, append(opts, OnFrameOption(c.dispatch))...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.logger = conn.logger

	if err := conn.Send(name); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "send name")
	}
	return c, nil
}

// Run relays frames between the server and the frontend until the connection
// ends or ctx is done, then calls OnConnectionClosed.
func (c *Client) Run(ctx context.Context) error {
	err := c.conn.Run(ctx)
	c.closeOnce.Do(func() {
		c.frontend.OnConnectionClosed(err)
	})
	return err
}

// SendChat queues a chat line for the server.
// It fails with ErrConnectionClosed after the connection ended and with
// ErrDelimiterInPayload if text cannot be framed.
func (c *Client) SendChat(text string) error {
	return c.conn.Send(text)
}

// RequestShutdown closes the connection once every queued chat line is written.
func (c *Client) RequestShutdown() {
	c.conn.Shutdown()
}

// Close closes the connection immediately.
func (c *Client) Close() error {
	return c.conn.Close()
}

// dispatch hands one server frame to the frontend.
// A frame that is not a valid envelope ends the connection.
func (c *Client) dispatch(_ context.Context, text string) error {
	env, err := ParseEnvelope(text)
	if err != nil {
		c.logger.Warn("decode error", "addr", c.conn.Addr(), "error", err,
			"protocol_violation", true)
		return err
	}

	switch env.Kind {
	case KindChat:
		c.frontend.OnIncomingChat(env.Name, env.Body)
	case KindJoin:
		c.frontend.OnSystemNotice(env.Name + " joined")
	case KindLeave:
		c.frontend.OnSystemNotice(env.Name + " left")
	}
	return nil
}
