package relay

import "github.com/pkg/errors"

// Errors returned by the codec. All of them except ErrWouldBlock end the connection.
var (
	// ErrWouldBlock is returned when no complete frame is available yet.
	// It is not a failure: the caller retries.
	ErrWouldBlock = errors.New("no data available yet")
	// ErrInvalidEncoding is returned when a frame is not valid UTF-8.
	ErrInvalidEncoding = errors.New("frame is not valid UTF-8")
	// ErrTruncatedFrame is returned when the stream ends inside a frame.
	ErrTruncatedFrame = errors.New("stream closed before frame delimiter")
	// ErrFrameTooLarge is returned when a frame exceeds the maximum allowed size.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrDelimiterInPayload is returned by Encode when the text contains the delimiter byte.
	ErrDelimiterInPayload = errors.New("payload contains frame delimiter")
	// ErrMalformedEnvelope is returned when a server message has an unknown tag or missing fields.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// Errors returned by connection operations.
var (
	// ErrInvalidOnFrame is returned when no frame handler is provided.
	ErrInvalidOnFrame = errors.New("invalid on frame callback")
	// ErrConnectionClosed is returned when operating on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")
)

// Errors returned by the coordinator.
var (
	// ErrCoordinatorStopped is returned when an event is submitted after the coordinator stopped.
	ErrCoordinatorStopped = errors.New("coordinator stopped")
	// ErrCoordinatorFailed is returned by Coordinator.Run when event handling panicked.
	ErrCoordinatorFailed = errors.New("coordinator failed")
)

// IsProtocolViolation reports whether err means the peer broke the wire protocol.
func IsProtocolViolation(err error) bool {
	return errors.Is(err, ErrInvalidEncoding) ||
		errors.Is(err, ErrTruncatedFrame) ||
		errors.Is(err, ErrFrameTooLarge) ||
		errors.Is(err, ErrDelimiterInPayload) ||
		errors.Is(err, ErrMalformedEnvelope)
}
