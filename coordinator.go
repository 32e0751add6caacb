package relay

import (
	"context"

	"github.com/pkg/errors"
)

// Event is a registry change or chat message submitted to the Coordinator.
type Event interface {
	event()
}

// ParticipantJoined is submitted once a connection completed its name handshake.
type ParticipantJoined struct {
	Participant *Participant
}

// ParticipantLeft is submitted exactly once when a joined participant's connection ends.
type ParticipantLeft struct {
	Participant *Participant
}

// ChatReceived is submitted for every chat line a participant sends.
type ChatReceived struct {
	From *Participant
	Text string
}

// namesQuery asks the coordinator for a snapshot of the live names.
type namesQuery struct {
	reply chan []string
}

func (ParticipantJoined) event() {}
func (ParticipantLeft) event()   {}
func (ChatReceived) event()      {}
func (namesQuery) event()        {}

// Coordinator owns the Registry and applies events to it one at a time, in
// the order they were submitted.
//
// Because a single goroutine does every Add, Remove and Broadcast, a participant
// is registered before its join is announced and removed before its leave is,
// so nobody is ever sent their own join or leave notice.
type Coordinator struct {
	registry *Registry
	events   *mailbox[Event]
	logger   Logger
	done     chan struct{}
}

// NewCoordinator returns a coordinator with an empty registry.
func NewCoordinator(logger Logger) *Coordinator {
	if logger == nil {
		logger = defaultLogger()
	}

	return &Coordinator{
		registry: NewRegistry(logger),
		events:   newMailbox[Event](),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Submit queues e for the coordinator. It never blocks.
// Returns ErrCoordinatorStopped once Run has returned.
func (c *Coordinator) Submit(e Event) error {
	if !c.events.push(e) {
		return ErrCoordinatorStopped
	}
	return nil
}

// Run processes events until ctx is done. It must be called once.
//
// It returns nil when ctx is canceled. If handling an event panics, Run shuts
// down every registered connection and returns an error wrapping
// ErrCoordinatorFailed; the relay cannot continue without its coordinator.
func (c *Coordinator) Run(ctx context.Context) (err error) {
	defer close(c.done)
	defer c.events.close()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrCoordinatorFailed, "panic: %v", r)
			c.logger.Error("coordinator failed", "error", err,
				"participants", c.registry.Len())
			c.registry.shutdownAll()
		}
	}()

	for {
		e, ok, popErr := c.events.pop(ctx)
		if popErr != nil || !ok {
			return nil
		}
		c.handle(e)
	}
}

// Names returns the display names of the live participants in join order.
// The snapshot is taken by the coordinator between two events.
func (c *Coordinator) Names(ctx context.Context) ([]string, error) {
	q := namesQuery{reply: make(chan []string, 1)}
	if err := c.Submit(q); err != nil {
		return nil, err
	}

	select {
	case names := <-q.reply:
		return names, nil
	case <-c.done:
		select {
		case names := <-q.reply:
			return names, nil
		default:
			return nil, ErrCoordinatorStopped
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed when Run returns.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

func (c *Coordinator) handle(e Event) {
	switch e := e.(type) {
	case ParticipantJoined:
		p := e.Participant
		c.registry.Add(p)
		c.logger.Info("participant joined", "participant", p.String(),
			"addr", p.Addr(), "live", c.registry.Len())
		c.registry.Broadcast(p.id, JoinEnvelope(p.name))

	case ParticipantLeft:
		p := e.Participant
		if !c.registry.Remove(p.id) {
			c.logger.Debug("leave for unknown participant", "participant", p.String())
			return
		}
		c.logger.Info("participant left", "participant", p.String(),
			"live", c.registry.Len())
		c.registry.Broadcast(p.id, LeaveEnvelope(p.name))

	case ChatReceived:
		c.logger.Debug("chat received", "participant", e.From.String(), "bytes", len(e.Text))
		c.registry.Broadcast(e.From.id, ChatEnvelope(e.From.name, e.Text))

	case namesQuery:
		e.reply <- c.registry.Names()
	}
}
