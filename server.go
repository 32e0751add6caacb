package relay

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// Handler handles accepted TCP connections.
type Handler interface {
	// Handle is called on its own goroutine for each new connection and owns it
	// from then on. ctx is canceled when the server shuts down.
	Handle(ctx context.Context, conn net.Conn)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, conn net.Conn)

// Handle calls f(ctx, conn).
func (f HandlerFunc) Handle(ctx context.Context, conn net.Conn) {
	f(ctx, conn)
}

// Server is the accept loop of the relay. It hands every connection to a Handler.
type Server struct {
	listener *net.TCPListener
	logger   Logger
	grace    time.Duration

	stopping atomic.Bool
	closed   chan struct{}
	close    sync.Once

	handlers sync.WaitGroup
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// ServerLoggerOption sets the logger for the server.
func ServerLoggerOption(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// ServerShutdownTimeoutOption sets how long the listener stays open after the
// Serve context is canceled. Handlers see the cancellation immediately.
// Default is 0. Close cuts the wait short.
func ServerShutdownTimeoutOption(timeout time.Duration) ServerOption {
	return func(s *Server) {
		s.grace = timeout
	}
}

// New listens on addr.
func New(addr *net.TCPAddr, opts ...ServerOption) (*Server, error) {
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s", addr)
	}

	s := &Server{
		listener: listener,
		logger:   defaultLogger(),
		closed:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Serve accepts connections and dispatches each to handler on its own goroutine.
// It blocks until ctx is canceled, Close is called or accepting fails, then
// cancels the handlers' context and waits for every handler to return.
//
// After a cancellation Serve returns ctx.Err(); after Close it returns nil.
func (s *Server) Serve(ctx context.Context, handler Handler) error {
	s.logger.Info("server started", "addr", s.listener.Addr())
	defer s.handlers.Wait()

	handlerCtx, cancelHandlers := context.WithCancel(ctx)
	defer cancelHandlers()

	done := make(chan struct{})
	defer close(done)
	go s.watch(ctx, done)

	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			if s.stopping.Load() {
				s.logger.Info("server stopped", "addr", s.listener.Addr())
				return ctx.Err()
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			s.logger.Error("accept error", "error", err)
			return errors.Wrap(err, "accept")
		}

		_ = conn.SetNoDelay(true)

		s.handlers.Add(1)
		go func() {
			defer s.handlers.Done()
			handler.Handle(handlerCtx, conn)
		}()
	}
}

// watch unblocks Accept once ctx is canceled and the grace period is over.
func (s *Server) watch(ctx context.Context, done <-chan struct{}) {
	select {
	case <-ctx.Done():
	case <-done:
		return
	}

	if s.grace > 0 {
		s.logger.Info("graceful shutdown initiated", "timeout", s.grace)
		select {
		case <-time.After(s.grace):
		case <-s.closed:
			s.logger.Debug("shutdown timeout bypassed by close")
		}
	}

	s.stopping.Store(true)
	_ = s.listener.SetDeadline(time.Now())
}

// Close closes the listener, ending Serve.
func (s *Server) Close() error {
	s.stopping.Store(true)
	s.close.Do(func() { close(s.closed) })
	return s.listener.Close()
}

// Addr returns the listener's network address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
