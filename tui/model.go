// Package tui is the terminal interface of ratclient: a scrolling chat log
// above a multi-line input box.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ClosedNotice is shown once the connection to the server is gone.
const ClosedNotice = "Connection has been closed."

const (
	inputHeight   = 3
	headerHeight  = 1
	footerHeight  = 1
	defaultWidth  = 80
	defaultHeight = 24
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	selfStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("35")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Sender is the outgoing side of the chat client.
type Sender interface {
	SendChat(text string) error
	RequestShutdown()
}

// Model is the bubbletea model of the chat window.
type Model struct {
	name   string
	sender Sender
	bridge *Bridge

	viewport viewport.Model
	input    textarea.Model
	lines    []string
	closed   bool
}

// New returns the chat window for the user called name.
// Chat typed by the user goes to sender; traffic from the server arrives through bridge.
func New(name string, sender Sender, bridge *Bridge) Model {
	input := textarea.New()
	input.Placeholder = "Type a message..."
	input.Prompt = "│ "
	input.ShowLineNumbers = false
	input.SetHeight(inputHeight)
	input.KeyMap.InsertNewline.SetKeys("ctrl+n")
	input.Focus()

	m := Model{
		name:     name,
		sender:   sender,
		bridge:   bridge,
		viewport: viewport.New(defaultWidth, defaultHeight-inputHeight-headerHeight-footerHeight),
		input:    input,
	}
	m.input.SetWidth(defaultWidth)
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.bridge.wait())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if !m.closed {
				m.sender.RequestShutdown()
			}
			return m, tea.Quit
		case tea.KeyEnter:
			m.submit()
			return m, nil
		}

	case chatMsg:
		m.appendLine(formatChat(nameStyle.Render(msg.name), msg.text))
		return m, m.bridge.wait()

	case noticeMsg:
		m.appendLine(noticeStyle.Render(msg.text))
		return m, m.bridge.wait()

	case closedMsg:
		m.closed = true
		m.input.Blur()
		m.appendLine(errorStyle.Render(ClosedNotice))
		return m, nil
	}

	if m.closed {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := headerStyle.Render("rat · " + m.name)

	help := "Enter send · Ctrl+N newline · Esc quit"
	if m.closed {
		help = ClosedNotice + " Esc to quit"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.input.View(),
		helpStyle.Render(help),
	)
}

// Lines returns the rendered chat log.
func (m Model) Lines() []string {
	return m.lines
}

// Closed reports whether the connection has been closed.
func (m Model) Closed() bool {
	return m.closed
}

// submit sends the input box content and echoes it locally; the server does
// not send a participant's own messages back.
func (m *Model) submit() {
	if m.closed {
		return
	}

	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return
	}

	if err := m.sender.SendChat(text); err != nil {
		m.appendLine(errorStyle.Render("not sent: " + err.Error()))
		return
	}

	m.appendLine(formatChat(selfStyle.Render(m.name), text))
	m.input.Reset()
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *Model) resize(width, height int) {
	m.input.SetWidth(width)
	m.viewport.Width = width
	m.viewport.Height = max(height-inputHeight-headerHeight-footerHeight, 1)
	m.viewport.GotoBottom()
}

// formatChat renders "name: text", indenting continuation lines under the text.
func formatChat(name, text string) string {
	indent := strings.Repeat(" ", lipgloss.Width(name)+2)
	return name + ": " + strings.ReplaceAll(text, "\n", "\n"+indent)
}
