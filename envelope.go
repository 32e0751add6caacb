package relay

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind is the tag on the first line of a server message.
type Kind string

// Server to client message kinds.
const (
	KindChat  Kind = "Chat"
	KindJoin  Kind = "JoinEvent"
	KindLeave Kind = "LeaveEvent"
)

// Envelope is a server to client message. It travels as one frame:
//
//	Chat\n<senderName>\n<body>
//	JoinEvent\n<name>
//	LeaveEvent\n<name>
type Envelope struct {
	Kind Kind
	Name string
	Body string
}

// ChatEnvelope returns the envelope relaying body sent by name.
func ChatEnvelope(name, body string) Envelope {
	return Envelope{Kind: KindChat, Name: name, Body: body}
}

// JoinEnvelope returns the envelope announcing that name joined.
func JoinEnvelope(name string) Envelope {
	return Envelope{Kind: KindJoin, Name: name}
}

// LeaveEnvelope returns the envelope announcing that name left.
func LeaveEnvelope(name string) Envelope {
	return Envelope{Kind: KindLeave, Name: name}
}

// String renders the envelope in its wire text form, without the frame delimiter.
func (e Envelope) String() string {
	if e.Kind == KindChat {
		return string(e.Kind) + "\n" + e.Name + "\n" + e.Body
	}
	return string(e.Kind) + "\n" + e.Name
}

// ParseEnvelope parses the text of one server frame.
// Unknown tags and missing fields are reported as ErrMalformedEnvelope.
func ParseEnvelope(text string) (Envelope, error) {
	tag, rest, ok := strings.Cut(text, "\n")
	if !ok {
		return Envelope{}, errors.Wrapf(ErrMalformedEnvelope, "no fields after tag %q", tag)
	}

	switch Kind(tag) {
	case KindChat:
		name, body, ok := strings.Cut(rest, "\n")
		if !ok {
			return Envelope{}, errors.Wrap(ErrMalformedEnvelope, "chat without body")
		}
		return ChatEnvelope(name, body), nil
	case KindJoin:
		return JoinEnvelope(rest), nil
	case KindLeave:
		return LeaveEnvelope(rest), nil
	default:
		return Envelope{}, errors.Wrapf(ErrMalformedEnvelope, "unknown tag %q", tag)
	}
}
