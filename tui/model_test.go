package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent      []string
	err       error
	shutdowns int
}

func (f *fakeSender) SendChat(text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeSender) RequestShutdown() {
	f.shutdowns++
}

func newTestModel(sender Sender) Model {
	return New("alice", sender, NewBridge(4))
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func enter() tea.Msg {
	return tea.KeyMsg{Type: tea.KeyEnter}
}

func TestModel_EnterSendsAndEchoes(t *testing.T) {
	req := require.New(t)

	// Given a typed message
	sender := &fakeSender{}
	m := newTestModel(sender)
	m.input.SetValue("hello there")

	// When Enter is pressed
	m, _ = update(t, m, enter())

	// Then it is sent, echoed and the input cleared
	req.Equal([]string{"hello there"}, sender.sent)
	req.Len(m.Lines(), 1)
	req.Contains(m.Lines()[0], "alice")
	req.Contains(m.Lines()[0], "hello there")
	req.Empty(m.input.Value())
}

func TestModel_BlankInputIgnored(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModel(sender)
	m.input.SetValue("   ")

	m, _ = update(t, m, enter())

	require.Empty(t, sender.sent)
	require.Empty(t, m.Lines())
}

func TestModel_SendErrorShown(t *testing.T) {
	req := require.New(t)

	sender := &fakeSender{err: errors.New("connection closed")}
	m := newTestModel(sender)
	m.input.SetValue("lost")

	m, _ = update(t, m, enter())

	req.Len(m.Lines(), 1)
	req.Contains(m.Lines()[0], "not sent: connection closed")
	req.Equal("lost", m.input.Value())
}

func TestModel_IncomingTraffic(t *testing.T) {
	req := require.New(t)

	m := newTestModel(&fakeSender{})

	m, cmd := update(t, m, chatMsg{name: "bob", text: "hi\nthere"})
	req.NotNil(cmd)
	m, cmd = update(t, m, noticeMsg{text: "carol joined"})
	req.NotNil(cmd)

	lines := m.Lines()
	req.Len(lines, 2)
	req.Contains(lines[0], "bob")
	req.Contains(lines[0], "hi")
	req.Contains(lines[1], "carol joined")
}

func TestModel_ConnectionClosed(t *testing.T) {
	req := require.New(t)

	// Given a closed connection
	sender := &fakeSender{}
	m := newTestModel(sender)
	m, cmd := update(t, m, closedMsg{})
	req.Nil(cmd)
	req.True(m.Closed())
	req.Contains(m.Lines()[len(m.Lines())-1], ClosedNotice)
	req.Contains(m.View(), ClosedNotice)

	// When the user keeps typing
	m.input.SetValue("anyone?")
	m, _ = update(t, m, enter())
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	// Then nothing is sent
	req.Empty(sender.sent)
	req.Equal(1, len(m.Lines()))

	// And quitting does not ask for a second shutdown
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	req.NotNil(cmd)
	req.Zero(sender.shutdowns)
}

func TestModel_QuitRequestsShutdown(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyEsc, tea.KeyCtrlC} {
		sender := &fakeSender{}
		m := newTestModel(sender)

		_, cmd := update(t, m, tea.KeyMsg{Type: key})

		require.Equal(t, 1, sender.shutdowns)
		require.NotNil(t, cmd)
		require.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestModel_Resize(t *testing.T) {
	m := newTestModel(&fakeSender{})

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	require.Equal(t, 120, m.viewport.Width)
	require.Equal(t, 40-inputHeight-headerHeight-footerHeight, m.viewport.Height)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 20, Height: 2})
	require.Equal(t, 1, m.viewport.Height)
}

func TestFormatChat(t *testing.T) {
	got := formatChat("bob", "one\ntwo")
	require.Equal(t, "bob: one\n     two", got)
}

func TestBridge_DeliversInOrder(t *testing.T) {
	req := require.New(t)

	b := NewBridge(4)
	b.OnIncomingChat("bob", "hi")
	b.OnSystemNotice("carol left")
	b.OnConnectionClosed(nil)

	wait := b.wait()
	req.Equal(chatMsg{name: "bob", text: "hi"}, wait())
	req.Equal(noticeMsg{text: "carol left"}, wait())
	req.Equal(closedMsg{}, wait())
}

func TestBridge_CloseReleasesBlockedPost(t *testing.T) {
	b := NewBridge(1)
	b.OnSystemNotice("first")

	posted := make(chan struct{})
	go func() {
		b.OnSystemNotice("second")
		close(posted)
	}()

	select {
	case <-posted:
		t.Fatal("post should block on a full bridge")
	case <-time.After(50 * time.Millisecond):
	}

	b.Close()
	b.Close()

	require.Eventually(t, func() bool {
		select {
		case <-posted:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestBridge_WaitAfterClose(t *testing.T) {
	b := NewBridge(1)
	b.Close()

	require.Nil(t, b.wait()())
}

func TestModel_ViewShowsName(t *testing.T) {
	m := newTestModel(&fakeSender{})
	require.True(t, strings.Contains(m.View(), "alice"))
}
