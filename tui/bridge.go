package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

type chatMsg struct {
	name string
	text string
}

type noticeMsg struct {
	text string
}

type closedMsg struct {
	err error
}

// Bridge turns client callbacks into bubbletea messages.
// It implements relay.Frontend.
type Bridge struct {
	events chan tea.Msg
	done   chan struct{}
	once   sync.Once
}

// NewBridge returns a bridge buffering up to size messages before the
// client's reader waits for the UI.
func NewBridge(size int) *Bridge {
	if size < 1 {
		size = 1
	}
	return &Bridge{
		events: make(chan tea.Msg, size),
		done:   make(chan struct{}),
	}
}

// OnIncomingChat implements relay.Frontend.
func (b *Bridge) OnIncomingChat(name, text string) {
	b.post(chatMsg{name: name, text: text})
}

// OnSystemNotice implements relay.Frontend.
func (b *Bridge) OnSystemNotice(text string) {
	b.post(noticeMsg{text: text})
}

// OnConnectionClosed implements relay.Frontend.
func (b *Bridge) OnConnectionClosed(err error) {
	b.post(closedMsg{err: err})
}

// Close releases a reader blocked on a full bridge. Call it once the UI stopped.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *Bridge) post(msg tea.Msg) {
	select {
	case b.events <- msg:
	case <-b.done:
	}
}

// wait returns a command delivering the next message from the client.
func (b *Bridge) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-b.events:
			return msg
		case <-b.done:
			return nil
		}
	}
}
