// Package relay implements a minimal multi-client chat relay over TCP.
//
// Messages travel as frames: UTF-8 text terminated by a single EOT (0x04) byte.
// A server registers every connection as a named participant and rebroadcasts
// each participant's messages to all the others; a client bridges one server
// connection to a local user interface.
package relay

import (
	"bufio"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Delimiter terminates every frame on the wire.
const Delimiter byte = 0x04

// Encode returns the wire form of text: its UTF-8 bytes followed by Delimiter.
// Text containing the delimiter cannot be framed and is rejected with ErrDelimiterInPayload.
func Encode(text string) ([]byte, error) {
	if strings.IndexByte(text, Delimiter) >= 0 {
		return nil, ErrDelimiterInPayload
	}

	buf := make([]byte, 0, len(text)+1)
	buf = append(buf, text...)
	return append(buf, Delimiter), nil
}

// Decoder reads frames from a byte stream.
//
// Bytes of an incomplete frame are kept across calls, so a read that times out
// in the middle of a frame loses nothing: the next call continues where the
// previous one stopped. A Decoder is not safe for concurrent use.
type Decoder struct {
	r       *bufio.Reader
	pending []byte
	maxSize int
}

// NewDecoder returns a Decoder reading from r. Frames whose payload exceeds
// maxSize bytes are rejected with ErrFrameTooLarge.
func NewDecoder(r io.Reader, maxSize int) *Decoder {
	if maxSize <= 0 {
		maxSize = defaultMaxFrameSize
	}
	return &Decoder{
		r:       bufio.NewReader(r),
		maxSize: maxSize,
	}
}

// Next returns the next complete frame without its delimiter.
//
// It returns io.EOF when the stream ends cleanly between frames, ErrWouldBlock
// when the underlying reader hit its deadline before a delimiter was seen,
// ErrTruncatedFrame when the stream ends inside a frame and ErrInvalidEncoding
// when the frame is not valid UTF-8. Any other read error is returned wrapped.
func (d *Decoder) Next() (string, error) {
	for {
		chunk, err := d.r.ReadSlice(Delimiter)
		d.pending = append(d.pending, chunk...)

		size := len(d.pending)
		if err == nil {
			size--
		}
		if size > d.maxSize {
			d.pending = d.pending[:0]
			return "", ErrFrameTooLarge
		}

		switch {
		case err == nil:
			frame := d.pending[:size]
			d.pending = d.pending[:0]
			if !utf8.Valid(frame) {
				return "", ErrInvalidEncoding
			}
			return string(frame), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case isTimeout(err):
			return "", ErrWouldBlock
		case errors.Is(err, io.EOF):
			if len(d.pending) > 0 {
				d.pending = d.pending[:0]
				return "", ErrTruncatedFrame
			}
			return "", io.EOF
		default:
			return "", errors.Wrap(err, "read frame")
		}
	}
}

// Buffered reports how many bytes of an incomplete frame are held by the decoder.
func (d *Decoder) Buffered() int {
	return len(d.pending) + d.r.Buffered()
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
