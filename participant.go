//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=mocks/mock_outbox.go -package=mocks
package relay

import (
	"net"

	"github.com/google/uuid"
)

// Outbox is the write side of a participant's connection. *Conn implements it.
type Outbox interface {
	// Send queues text for delivery without blocking on the network.
	Send(text string) error
	// Shutdown closes the connection after everything queued so far is written.
	Shutdown()
	// Close tears the connection down immediately.
	Close() error
	// Addr returns the remote address.
	Addr() net.Addr
}

// Participant is a registered, named connection.
//
// Its id and name are fixed at construction and never change, so they can be
// read from any goroutine without synchronization.
type Participant struct {
	id   uuid.UUID
	name string
	out  Outbox
}

// NewParticipant returns a participant with a fresh random id.
func NewParticipant(name string, out Outbox) *Participant {
	return &Participant{
		id:   uuid.New(),
		name: name,
		out:  out,
	}
}

// ID returns the participant's unique id.
func (p *Participant) ID() uuid.UUID { return p.id }

// Name returns the display name chosen during the handshake.
func (p *Participant) Name() string { return p.name }

// Addr returns the remote address of the participant's connection.
func (p *Participant) Addr() net.Addr { return p.out.Addr() }

// String returns a short form for logs.
func (p *Participant) String() string {
	return p.name + "#" + p.id.String()[:8]
}
