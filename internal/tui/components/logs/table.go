package logs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/zerosync-co/ghosttext/internal/logging"
	"github.com/zerosync-co/ghosttext/internal/pubsub"
	"github.com/zerosync-co/ghosttext/internal/tui/styles"
)

const logLimit = 100

type TableComponent interface {
	tea.Model
	SetSize(width, height int) tea.Cmd
	BindingKeys() []key.Binding
	Selected() (logging.Log, bool)
}

type tableCmp struct {
	table     table.Model
	logs      []logging.Log
	sessionID string
}

// LogsLoadedMsg carries the initial page of diagnostics.
type LogsLoadedMsg struct {
	Logs []logging.Log
}

func (i *tableCmp) Init() tea.Cmd {
	return i.fetchLogs()
}

func (i *tableCmp) fetchLogs() tea.Cmd {
	sessionID := i.sessionID
	return func() tea.Msg {
		ctx := context.Background()
		loggingService := logging.GetService()
		if loggingService == nil {
			return nil
		}

		var logs []logging.Log
		var err error
		if sessionID == "" {
			logs, err = loggingService.ListAll(ctx, logLimit)
		} else {
			logs, err = loggingService.ListBySession(ctx, sessionID)
			if err == nil {
				// ListBySession is oldest first.
				sort.SliceStable(logs, func(a, b int) bool { return logs[a].Timestamp.After(logs[b].Timestamp) })
				if len(logs) > logLimit {
					logs = logs[:logLimit]
				}
			}
		}
		if err != nil {
			return nil
		}
		return LogsLoadedMsg{Logs: logs}
	}
}

func (i *tableCmp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LogsLoadedMsg:
		i.logs = msg.Logs
		i.updateRows()
		return i, nil

	case pubsub.Event[logging.Log]:
		if msg.Type != logging.EventLogCreated {
			return i, nil
		}
		if i.sessionID != "" && msg.Payload.SessionID != i.sessionID {
			return i, nil
		}
		i.logs = append([]logging.Log{msg.Payload}, i.logs...)
		if len(i.logs) > logLimit {
			i.logs = i.logs[:logLimit]
		}
		i.updateRows()
		return i, nil
	}

	t, cmd := i.table.Update(msg)
	i.table = t
	return i, cmd
}

func (i *tableCmp) View() string {
	defaultStyles := table.DefaultStyles()
	defaultStyles.Selected = defaultStyles.Selected.Foreground(styles.Selected().GetForeground())
	i.table.SetStyles(defaultStyles)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().PaddingRight(3).Render(i.table.View()),
		i.details(),
	)
}

func (i *tableCmp) details() string {
	l, ok := i.Selected()
	if !ok {
		return styles.Muted().Render("No diagnostics yet")
	}
	var b strings.Builder
	b.WriteString(styles.Bold().Render(l.Message))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s %s\n", styles.Muted().Render("time   "), l.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "%s %s\n", styles.Muted().Render("level  "), l.Level)
	if l.SessionID != "" {
		fmt.Fprintf(&b, "%s %s\n", styles.Muted().Render("session"), l.SessionID)
	}
	keys := make([]string, 0, len(l.Attributes))
	for k := range l.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		b.WriteString("\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "%s %s\n", styles.Muted().Render(k), l.Attributes[k])
	}
	return b.String()
}

func (i *tableCmp) Selected() (logging.Log, bool) {
	row := i.table.SelectedRow()
	if row == nil {
		return logging.Log{}, false
	}
	for _, l := range i.logs {
		if l.ID == row[0] {
			return l, true
		}
	}
	return logging.Log{}, false
}

func (i *tableCmp) SetSize(width int, height int) tea.Cmd {
	width /= 2
	i.table.SetWidth(width)
	i.table.SetHeight(height)
	columns := i.table.Columns()

	timeWidth := 8  // Fixed width for Time column
	levelWidth := 7 // Fixed width for Level column

	// Message column gets the remaining space
	messageWidth := max(10, width-timeWidth-levelWidth-5)

	columns[0].Width = 0 // ID column (hidden)
	columns[1].Width = timeWidth
	columns[2].Width = levelWidth
	columns[3].Width = messageWidth

	i.table.SetColumns(columns)
	return nil
}

func (i *tableCmp) BindingKeys() []key.Binding {
	km := i.table.KeyMap
	return []key.Binding{km.LineUp, km.LineDown, km.PageUp, km.PageDown, km.GotoTop, km.GotoBottom}
}

func (i *tableCmp) updateRows() {
	rows := make([]table.Row, 0, len(i.logs))

	for _, log := range i.logs {
		// Include ID as hidden first column for selection
		rows = append(rows, table.Row{
			log.ID,
			log.Timestamp.Local().Format("15:04:05"),
			log.Level,
			log.Message,
		})
	}

	i.table.SetRows(rows)
}

// NewLogsTable lists recent diagnostics. A non-empty sessionID limits the
// table to that editor session.
func NewLogsTable(sessionID string) TableComponent {
	columns := []table.Column{
		{Title: "ID", Width: 0}, // ID column with zero width
		{Title: "Time", Width: 8},
		{Title: "Level", Width: 7},
		{Title: "Message", Width: 30},
	}

	tableModel := table.New(
		table.WithColumns(columns),
	)
	tableModel.Focus()
	return &tableCmp{
		table:     tableModel,
		logs:      []logging.Log{},
		sessionID: sessionID,
	}
}
