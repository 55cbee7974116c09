package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/zerosync-co/ghosttext/internal/suggest"
	"github.com/zerosync-co/ghosttext/internal/tui/styles"
	"github.com/zerosync-co/ghosttext/internal/tui/util"
)

const defaultMessageTTL = 4 * time.Second

// Snapshot is what the status bar shows about the editor.
type Snapshot struct {
	Path  string
	Dirty bool
	Caret suggest.Position
	State suggest.State
}

type StatusCmp interface {
	tea.Model
	SetHelpWidgetMsg(string)
	SetSnapshot(Snapshot)
}

type statusCmp struct {
	messages   []statusMessage
	width      int
	messageTTL time.Duration
	helpText   string
	snapshot   Snapshot
}

type statusMessage struct {
	Level     string
	Message   string
	ExpiresAt time.Time
}

// clearMessageCmd is a command that clears status messages after a timeout
func (m *statusCmp) clearMessageCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return statusCleanupMsg{time: t}
	})
}

// statusCleanupMsg is a message that triggers cleanup of expired status messages
type statusCleanupMsg struct {
	time time.Time
}

func (m *statusCmp) Init() tea.Cmd {
	return m.clearMessageCmd()
}

func (m *statusCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case util.InfoMsg:
		ttl := msg.TTL
		if ttl == 0 {
			ttl = m.messageTTL
		}
		m.messages = append(m.messages, statusMessage{
			Level:     level(msg.Type),
			Message:   msg.Msg,
			ExpiresAt: time.Now().Add(ttl),
		})
	case statusCleanupMsg:
		var active []statusMessage
		for _, sm := range m.messages {
			if sm.ExpiresAt.After(msg.time) {
				active = append(active, sm)
			}
		}
		m.messages = active
		return m, m.clearMessageCmd()
	}
	return m, nil
}

func level(t util.InfoType) string {
	switch t {
	case util.InfoTypeWarn:
		return "warn"
	case util.InfoTypeError:
		return "error"
	default:
		return "info"
	}
}

func (m *statusCmp) View() string {
	help := styles.HelpWidget().Render(m.helpText)
	file := styles.StatusBar().Render(m.fileName())
	caret := styles.StatusBar().Render(fmt.Sprintf("Ln %d, Col %d", m.snapshot.Caret.Line+1, m.snapshot.Caret.Col+1))
	indicator := styles.StatusBar().Render(suggestionIndicator(m.snapshot.State))

	fill := max(0, m.width-
		lipgloss.Width(help)-
		lipgloss.Width(file)-
		lipgloss.Width(caret)-
		lipgloss.Width(indicator))

	var middle string
	if len(m.messages) > 0 {
		sm := m.messages[0]
		text := runewidth.Truncate(sm.Message, max(0, fill-2), styles.Ellipsis)
		middle = styles.Message(sm.Level).Width(fill).Render(text)
	} else {
		middle = styles.StatusBar().Width(fill).Render("")
	}
	return help + file + middle + caret + indicator
}

func (m *statusCmp) fileName() string {
	name := "[scratch]"
	if m.snapshot.Path != "" {
		name = filepath.Base(m.snapshot.Path)
	}
	if m.snapshot.Dirty {
		name += " " + styles.DirtyIcon
	}
	return name
}

// suggestionIndicator shows the overlay state, never the suggestion text.
func suggestionIndicator(s suggest.State) string {
	switch s {
	case suggest.StatePending:
		return styles.PendingIcon + " " + styles.GhostIcon
	case suggest.StateDisplayed:
		return styles.DisplayedIcon + " " + styles.GhostIcon
	default:
		return styles.IdleIcon + " " + styles.GhostIcon
	}
}

func (m *statusCmp) SetHelpWidgetMsg(s string) {
	if strings.TrimSpace(s) == "" {
		s = "ctrl+c quit"
	}
	m.helpText = s
}

func (m *statusCmp) SetSnapshot(s Snapshot) {
	m.snapshot = s
}

func NewStatusCmp() StatusCmp {
	return &statusCmp{
		messageTTL: defaultMessageTTL,
		helpText:   "ctrl+c quit",
	}
}
