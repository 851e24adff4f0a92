// Package monitor implements the bbsterm live-event TUI: a Bubble Tea
// program that lists payment.Event traffic from an in-process broker
// and lets the operator select an event and copy its STAN/auth code
// (or its text) to the clipboard. It has no per-event detail view.
//
// Grounded on the reference tui.Model's Bubble Tea architecture (a
// single Model driving Init/Update/View, a scrolling list with a
// cursor, a styled detail pane, and a clipboard-copy key binding) but
// rebuilt much smaller: there is no grpc stream, no EXPLAIN view, no
// query analytics — just a list of payment events fed by an
// in-process broker.Broker[payment.Event] subscription.
package monitor

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bwhmather/bbsterm/broker"
	"github.com/bwhmather/bbsterm/clipboard"
	"github.com/bwhmather/bbsterm/payment"
)

var (
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	styleSelected = lipgloss.NewStyle().Background(lipgloss.Color("236"))
	styleSuccess  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleCancel   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleBroken   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

const maxEvents = 500

type eventMsg payment.Event
type closedMsg struct{}
type copiedMsg struct{ err error }

// Model is the monitor's Bubble Tea model.
type Model struct {
	events    []payment.Event
	cursor    int
	unsub     func()
	ch        <-chan payment.Event
	width     int
	height    int
	status    string
}

// New builds a Model subscribed to b.
func New(b *broker.Broker[payment.Event]) Model {
	ch, unsub := b.Subscribe(256)
	return Model{ch: ch, unsub: unsub}
}

func (m Model) Init() tea.Cmd {
	return listen(m.ch)
}

func listen(ch <-chan payment.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case eventMsg:
		ev := payment.Event(msg)
		m.events = append(m.events, ev)
		if len(m.events) > maxEvents {
			m.events = m.events[len(m.events)-maxEvents:]
		}
		return m, listen(m.ch)

	case closedMsg:
		m.status = "event feed closed"
		return m, nil

	case copiedMsg:
		if msg.err != nil {
			m.status = "copy failed: " + msg.err.Error()
		} else {
			m.status = "copied to clipboard"
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.unsub != nil {
				m.unsub()
			}
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.events)-1 {
				m.cursor++
			}
		case "c":
			return m, m.copySelected()
		}
		return m, nil
	}
	return m, nil
}

func (m Model) copySelected() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.events) {
		return nil
	}
	ev := m.events[m.cursor]
	text := ev.Text
	if ev.Payment != nil {
		text = ev.Payment.StanAuth
	}
	return func() tea.Msg {
		return copiedMsg{err: clipboard.Copy(context.Background(), text)}
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(styleHeader.Render("bbsterm monitor") + "\n\n")

	start := 0
	if len(m.events) > 20 {
		start = len(m.events) - 20
	}
	for i := start; i < len(m.events); i++ {
		line := formatEvent(m.events[i])
		if i == m.cursor {
			line = styleSelected.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if len(m.events) == 0 {
		b.WriteString(styleDim.Render("waiting for events...") + "\n")
	}

	b.WriteString("\n" + styleDim.Render("↑/↓ select  c copy  q quit") + "\n")
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	return b.String()
}

func formatEvent(ev payment.Event) string {
	line := fmt.Sprintf("%s  %-8s  %-16s  %s", ev.Time.Format("15:04:05"), ev.SessionID, ev.Kind, ev.Text)
	switch ev.Kind {
	case payment.KindSucceeded:
		return styleSuccess.Render(line)
	case payment.KindCancelled:
		return styleCancel.Render(line)
	case payment.KindBroken:
		return styleBroken.Render(line)
	default:
		return line
	}
}
