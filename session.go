package relay

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// defaultHandshakeTimeout bounds how long a new connection may take to send its name.
const defaultHandshakeTimeout = 30 * time.Second

// ChatServer relays chat between every connection handed to it.
//
// Each connection goes through accept, handshake, register, relay and
// deregister: the first frame is the participant's name, every later frame
// is a chat line for everybody else. ChatServer implements Handler.
type ChatServer struct {
	coordinator *Coordinator
	logger      Logger

	handshakeTimeout time.Duration
	chatRate         rate.Limit
	chatBurst        int
	connOpts         []Option
}

// SessionOption configures a ChatServer.
type SessionOption func(*ChatServer)

// SessionLoggerOption sets the logger used by the chat server and its connections.
func SessionLoggerOption(logger Logger) SessionOption {
	return func(s *ChatServer) {
		s.logger = logger
	}
}

// SessionHandshakeTimeoutOption sets how long a connection may take to send
// its name. Zero waits forever. Default is 30s.
func SessionHandshakeTimeoutOption(timeout time.Duration) SessionOption {
	return func(s *ChatServer) {
		s.handshakeTimeout = timeout
	}
}

// SessionFloodControlOption limits each participant to perSecond chat lines
// per second with bursts of burst. A participant over the limit is slowed
// down, never dropped. Zero perSecond disables the limit, which is the default.
func SessionFloodControlOption(perSecond float64, burst int) SessionOption {
	return func(s *ChatServer) {
		s.chatRate = rate.Limit(perSecond)
		s.chatBurst = burst
	}
}

// SessionConnOption sets options applied to every participant connection.
func SessionConnOption(opts ...Option) SessionOption {
	return func(s *ChatServer) {
		s.connOpts = append(s.connOpts, opts...)
	}
}

// NewChatServer returns a chat server with its own coordinator.
func NewChatServer(opts ...SessionOption) *ChatServer {
	s := &ChatServer{
		logger:           defaultLogger(),
		handshakeTimeout: defaultHandshakeTimeout,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.handshakeTimeout < 0 {
		s.handshakeTimeout = 0
	}
	if s.chatBurst < 1 {
		s.chatBurst = 1
	}

	s.coordinator = NewCoordinator(s.logger)
	return s
}

// Coordinator returns the coordinator that owns the participant registry.
func (s *ChatServer) Coordinator() *Coordinator {
	return s.coordinator
}

// Serve runs the coordinator and srv's accept loop until ctx is canceled or
// either of them fails. Every session has ended when Serve returns.
//
// It returns nil after a cancellation, an error wrapping ErrCoordinatorFailed
// if the coordinator died, and the accept error otherwise.
func (s *ChatServer) Serve(ctx context.Context, srv *Server) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.coordinator.Run(ctx)
	})

	group.Go(func() error {
		err := srv.Serve(ctx, s)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	return group.Wait()
}

// Handle runs one participant session. It returns when the connection ends.
func (s *ChatServer) Handle(ctx context.Context, raw net.Conn) {
	logger := scopedLogger(s.logger, "addr", raw.RemoteAddr())
	logger.Info("connection accepted")

	var (
		participant *Participant
		limiter     *rate.Limiter
	)
	if s.chatRate > 0 {
		limiter = rate.NewLimiter(s.chatRate, s.chatBurst)
	}

	onFrame := func(ctx context.Context, text string) error {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return errors.Wrap(err, "flood control")
			}
		}
		return s.coordinator.Submit(ChatReceived{From: participant, Text: text})
	}

	opts := append([]Option{LoggerOption(logger)}, s.connOpts...)
	opts = append(opts, OnFrameOption(onFrame))

	conn, err := NewConn(raw, opts...)
	if err != nil {
		logger.Error("create connection", "error", err)
		_ = raw.Close()
		return
	}

	name, err := s.handshake(ctx, conn)
	if err != nil {
		if IsProtocolViolation(err) {
			logger.Warn("decode error", "error", err, "protocol_violation", true)
		} else {
			logger.Info("handshake failed", "error", err)
		}
		_ = conn.Close()
		return
	}

	participant = NewParticipant(name, conn)
	if err := s.coordinator.Submit(ParticipantJoined{Participant: participant}); err != nil {
		logger.Warn("register participant", "participant", participant.String(), "error", err)
		_ = conn.Close()
		return
	}

	err = conn.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("session ended", "participant", participant.String(), "error", err)
	}

	if err := s.coordinator.Submit(ParticipantLeft{Participant: participant}); err != nil {
		logger.Debug("deregister participant", "participant", participant.String(), "error", err)
	}
}

// handshake reads the participant's name: the first frame, taken as is.
func (s *ChatServer) handshake(ctx context.Context, conn *Conn) (string, error) {
	if s.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.handshakeTimeout)
		defer cancel()
	}

	name, err := conn.ReadFrame(ctx)
	if err != nil {
		return "", errors.Wrap(err, "read name")
	}
	return name, nil
}
