package relay

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Default configuration values.
const (
	// defaultMaxFrameSize is the default maximum payload of a single frame (1MB).
	defaultMaxFrameSize = 1024 * 1024
	// defaultPollInterval is how long a read waits before the reader checks for cancellation.
	defaultPollInterval = 100 * time.Millisecond
)

type commandKind int

const (
	cmdSendRaw commandKind = iota
	cmdShutdown
)

// command is the unit of work of a connection's writer.
type command struct {
	kind    commandKind
	payload []byte
}

// Conn is one framed duplex connection.
//
// Run drives a reader and a writer over the connection. The reader decodes
// frames and hands them to the OnFrameOption callback; the writer drains the
// connection's command queue. The queue is the only path to the socket, so
// writes from different goroutines are never interleaved.
type Conn struct {
	rawConn  net.Conn
	decoder  *Decoder
	logger   Logger
	opts     options
	commands *mailbox[command]
	closed   atomic.Bool
}

// NewConn creates a new connection wrapper around the given network connection.
// It applies the provided options and validates them before returning.
// Returns an error if the frame handler is missing.
func NewConn(conn net.Conn, opt ...Option) (*Conn, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	return &Conn{
		rawConn:  conn,
		decoder:  NewDecoder(conn, opts.maxFrameSize),
		logger:   opts.logger,
		opts:     opts,
		commands: newMailbox[command](),
	}, nil
}

// checkOptions validates and sets default values for connection options.
func checkOptions(opts *options) error {
	if opts.onFrame == nil {
		return ErrInvalidOnFrame
	}

	if opts.maxFrameSize <= 0 {
		opts.maxFrameSize = defaultMaxFrameSize
	}

	if opts.pollInterval <= 0 {
		opts.pollInterval = defaultPollInterval
	}

	if opts.writeTimeout < 0 {
		opts.writeTimeout = 0
	}

	if opts.onError == nil {
		opts.onError = func(error) {}
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	return nil
}

// Run starts the connection's read and write loops and blocks until both stop.
// The connection is closed when Run returns.
//
// Run returns nil when the peer closed the stream or the connection was shut
// down locally, the parent context's error when it was canceled, and the
// terminal read, decode or write error otherwise.
func (c *Conn) Run(ctx context.Context) error {
	c.logger.Debug("connection running", "addr", c.Addr(),
		"max_frame_size", c.opts.maxFrameSize,
		"poll_interval", c.opts.pollInterval)

	group, child := errgroup.WithContext(ctx)
	child, cancel := context.WithCancel(child)
	defer cancel()

	// Either loop ending stops the other one.
	group.Go(func() error {
		defer cancel()
		return c.readLoop(child)
	})

	group.Go(func() error {
		defer cancel()
		return c.writeLoop(child)
	})

	err := group.Wait()
	_ = c.Close()

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Debug("connection closed with error", "addr", c.Addr(), "error", err)
	} else {
		c.logger.Debug("connection closed", "addr", c.Addr())
	}

	return err
}

// ReadFrame reads a single frame, waiting until one arrives, the stream ends
// or ctx is done. It is meant for handshakes and must not be called while Run
// is active.
func (c *Conn) ReadFrame(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.pollInterval))
		text, err := c.decoder.Next()
		if errors.Is(err, ErrWouldBlock) {
			continue
		}
		return text, err
	}
}

// Send queues text to be framed and written by the writer loop.
// It never blocks on the network.
//
// Returns:
//   - nil: the frame was queued (not yet written)
//   - ErrDelimiterInPayload: text cannot be framed, nothing was queued
//   - ErrConnectionClosed: the connection is closed or shutting down
func (c *Conn) Send(text string) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	data, err := Encode(text)
	if err != nil {
		return err
	}

	if !c.commands.push(command{kind: cmdSendRaw, payload: data}) {
		return ErrConnectionClosed
	}
	return nil
}

// Shutdown asks the writer to close the connection once every frame queued
// before it has been written. Later calls to Send fail with ErrConnectionClosed.
// Safe to call multiple times.
func (c *Conn) Shutdown() {
	c.commands.push(command{kind: cmdShutdown})
	c.commands.close()
}

// Close closes the connection immediately, dropping queued frames.
// Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}
	c.commands.close()
	return c.rawConn.Close()
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Pending returns the number of commands waiting for the writer.
func (c *Conn) Pending() int {
	return c.commands.len()
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.rawConn.RemoteAddr()
}

// readLoop decodes frames until the stream ends, an error occurs or ctx is done.
// A read that finds no data yet only yields; it never ends the loop.
func (c *Conn) readLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.pollInterval))

		text, err := c.decoder.Next()
		switch {
		case err == nil:
			if err := c.opts.onFrame(ctx, text); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		case errors.Is(err, ErrWouldBlock):
			continue
		case errors.Is(err, io.EOF):
			c.logger.Debug("end of stream", "addr", c.Addr())
			return nil
		case c.closed.Load():
			return nil
		default:
			c.logger.Warn("decode error", "addr", c.Addr(), "error", err,
				"protocol_violation", IsProtocolViolation(err))
			c.opts.onError(err)
			return err
		}
	}
}

// writeLoop executes commands from the queue until shutdown, failure or ctx is done.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		cmd, ok, err := c.commands.pop(ctx)
		if err != nil || !ok {
			return nil
		}

		switch cmd.kind {
		case cmdShutdown:
			c.logger.Debug("shutdown requested", "addr", c.Addr())
			_ = c.Close()
			return nil
		case cmdSendRaw:
			if err := c.write(cmd.payload); err != nil {
				if c.closed.Load() {
					return nil
				}
				c.logger.Warn("write failure", "addr", c.Addr(), "error", err)
				c.opts.onError(err)
				return err
			}
		}
	}
}

// write sends the whole frame, retrying short writes.
func (c *Conn) write(data []byte) error {
	if c.opts.writeTimeout > 0 {
		_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.writeTimeout))
	}

	for len(data) > 0 {
		n, err := c.rawConn.Write(data)
		if err != nil {
			return errors.Wrap(err, "write frame")
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		data = data[n:]
	}

	return nil
}
