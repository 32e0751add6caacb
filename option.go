package relay

import (
	"context"
	"time"
)

// options holds the configuration for a connection.
type options struct {
	logger Logger

	// onFrame is called by the reader for every decoded frame.
	// A non-nil error ends the connection.
	onFrame func(ctx context.Context, text string) error
	// onError is called when the connection fails with a read or write error.
	onError func(error)

	maxFrameSize int           // maximum payload size of a single frame
	pollInterval time.Duration // how long a read waits for data before yielding
	writeTimeout time.Duration // write deadline, zero means none
}

// Option is a function that configures connection options.
type Option func(*options)

// OnFrameOption returns an Option that sets the frame handler.
// The handler is required and is invoked by the reader, in stream order,
// for each frame received.
func OnFrameOption(cb func(ctx context.Context, text string) error) Option {
	return func(o *options) {
		o.onFrame = cb
	}
}

// OnErrorOption returns an Option that sets the error callback.
// It is invoked once with the error that ends the connection, unless the
// connection was closed locally.
func OnErrorOption(cb func(error)) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// MaxFrameSizeOption returns an Option that sets the maximum frame payload size.
// Larger frames are a protocol violation.
func MaxFrameSizeOption(size int) Option {
	return func(o *options) {
		o.maxFrameSize = size
	}
}

// PollIntervalOption returns an Option that sets how long the reader waits for
// data before yielding to check for cancellation.
func PollIntervalOption(interval time.Duration) Option {
	return func(o *options) {
		o.pollInterval = interval
	}
}

// WriteTimeoutOption returns an Option that sets a deadline on every write.
// By default writes have no deadline.
func WriteTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = timeout
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
