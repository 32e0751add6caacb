package relay

import (
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Registry is the set of live participants, in join order.
//
// A Registry is not safe for concurrent use: it is owned by the Coordinator's
// goroutine, which is the only one to read or mutate it.
type Registry struct {
	participants []*Participant
	logger       Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger Logger) *Registry {
	if logger == nil {
		logger = defaultLogger()
	}
	return &Registry{logger: logger}
}

// Add appends p to the live set. Ids are unique per connection, so p is never already present.
func (r *Registry) Add(p *Participant) {
	r.participants = append(r.participants, p)
}

// Remove removes the participant with the given id.
// It reports whether one was found; removing an absent id is a no-op.
func (r *Registry) Remove(id uuid.UUID) bool {
	_, i, ok := lo.FindIndexOf(r.participants, func(p *Participant) bool {
		return p.id == id
	})
	if !ok {
		return false
	}

	r.participants = slices.Delete(r.participants, i, i+1)
	return true
}

// Contains reports whether a participant with the given id is live.
func (r *Registry) Contains(id uuid.UUID) bool {
	return lo.ContainsBy(r.participants, func(p *Participant) bool {
		return p.id == id
	})
}

// Len returns the number of live participants.
func (r *Registry) Len() int {
	return len(r.participants)
}

// Names returns the display names of the live participants in join order.
func (r *Registry) Names() []string {
	return lo.Map(r.participants, func(p *Participant, _ int) string {
		return p.name
	})
}

// Broadcast queues env on every live participant except senderID and returns
// how many accepted it.
//
// Queuing never blocks, so a wedged receiver only delays its own delivery.
// A failed send is logged and skipped; the failing participant stays registered
// until its own reader reports the connection closed.
func (r *Registry) Broadcast(senderID uuid.UUID, env Envelope) int {
	text := env.String()
	recipients := lo.Filter(r.participants, func(p *Participant, _ int) bool {
		return p.id != senderID
	})

	delivered := 0
	for _, p := range recipients {
		if err := p.out.Send(text); err != nil {
			r.logger.Warn("broadcast send failed", "participant", p.String(),
				"kind", env.Kind, "error", err)
			continue
		}
		delivered++
	}

	return delivered
}

// shutdownAll flushes and closes every live participant's connection.
func (r *Registry) shutdownAll() {
	for _, p := range r.participants {
		p.out.Shutdown()
	}
}
