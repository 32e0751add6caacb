package relay

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Zereker/relay/mocks"
)

func newMockParticipant(ctrl *gomock.Controller, name string) (*Participant, *mocks.MockOutbox) {
	out := mocks.NewMockOutbox(ctrl)
	return NewParticipant(name, out), out
}

func TestNewParticipant_UniqueIDs(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)

	a, _ := newMockParticipant(ctrl, "alice")
	b, _ := newMockParticipant(ctrl, "alice")

	req.NotEqual(a.ID(), b.ID())
	req.NotEqual(uuid.Nil, a.ID())
	req.Equal("alice", a.Name())
}

func TestRegistry_AddRemove(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry(&recordingLogger{})

	alice, _ := newMockParticipant(ctrl, "alice")
	bob, _ := newMockParticipant(ctrl, "bob")
	carol, _ := newMockParticipant(ctrl, "carol")

	registry.Add(alice)
	registry.Add(bob)
	registry.Add(carol)
	req.Equal([]string{"alice", "bob", "carol"}, registry.Names())

	req.True(registry.Remove(bob.ID()))
	req.False(registry.Contains(bob.ID()))
	req.Equal([]string{"alice", "carol"}, registry.Names())
}

func TestRegistry_RemoveIsIdempotent(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry(&recordingLogger{})

	alice, _ := newMockParticipant(ctrl, "alice")
	registry.Add(alice)

	// Given a participant removed once
	req.True(registry.Remove(alice.ID()))

	// When it is removed again, or an unknown id is removed
	req.False(registry.Remove(alice.ID()))
	req.False(registry.Remove(uuid.New()))

	// Then nothing changes
	req.Equal(0, registry.Len())
}

func TestRegistry_BroadcastSkipsSender(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := NewRegistry(&recordingLogger{})

	alice, aliceOut := newMockParticipant(ctrl, "alice")
	bob, bobOut := newMockParticipant(ctrl, "bob")
	carol, carolOut := newMockParticipant(ctrl, "carol")
	registry.Add(alice)
	registry.Add(bob)
	registry.Add(carol)

	aliceOut.EXPECT().Send(gomock.Any()).Times(0)
	bobOut.EXPECT().Send("Chat\nalice\nhi").Return(nil)
	carolOut.EXPECT().Send("Chat\nalice\nhi").Return(nil)

	req.Equal(2, registry.Broadcast(alice.ID(), ChatEnvelope("alice", "hi")))
}

func TestRegistry_BroadcastContinuesAfterFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	logger := &recordingLogger{}
	registry := NewRegistry(logger)

	alice, _ := newMockParticipant(ctrl, "alice")
	bob, bobOut := newMockParticipant(ctrl, "bob")
	carol, carolOut := newMockParticipant(ctrl, "carol")
	registry.Add(alice)
	registry.Add(bob)
	registry.Add(carol)

	// Given bob's connection is gone
	bobOut.EXPECT().Send("JoinEvent\nalice").Return(ErrConnectionClosed)
	carolOut.EXPECT().Send("JoinEvent\nalice").Return(nil)

	// When alice's join is broadcast
	delivered := registry.Broadcast(alice.ID(), JoinEnvelope("alice"))

	// Then carol still gets it and the failure is logged
	req.Equal(1, delivered)
	entry, ok := logger.find("broadcast send failed")
	req.True(ok)
	req.Equal("warn", entry.level)
	req.True(registry.Contains(bob.ID()))
}

func TestRegistry_BroadcastEmpty(t *testing.T) {
	registry := NewRegistry(&recordingLogger{})

	require.Equal(t, 0, registry.Broadcast(uuid.New(), LeaveEnvelope("ghost")))
}

func TestRegistry_ShutdownAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry := NewRegistry(&recordingLogger{})

	for _, name := range []string{"alice", "bob"} {
		p, out := newMockParticipant(ctrl, name)
		out.EXPECT().Shutdown()
		registry.Add(p)
	}

	registry.shutdownAll()
}
