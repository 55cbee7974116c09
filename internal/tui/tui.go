package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zerosync-co/ghosttext/internal/config"
	"github.com/zerosync-co/ghosttext/internal/editor"
	"github.com/zerosync-co/ghosttext/internal/logging"
	"github.com/zerosync-co/ghosttext/internal/pubsub"
	"github.com/zerosync-co/ghosttext/internal/suggest"
	"github.com/zerosync-co/ghosttext/internal/tui/components/core"
	editorcmp "github.com/zerosync-co/ghosttext/internal/tui/components/editor"
	"github.com/zerosync-co/ghosttext/internal/tui/page"
	"github.com/zerosync-co/ghosttext/internal/tui/util"
)

type keyMap struct {
	Logs key.Binding
	Quit key.Binding
	Back key.Binding
}

var keys = keyMap{
	Logs: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "logs"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "ctrl+l"),
		key.WithHelp("esc", "go back"),
	),
}

// Options configures the editor program.
type Options struct {
	Buffer    *editor.Buffer
	Suggest   *suggest.Model
	Path      string
	SessionID string
}

type appModel struct {
	width, height int
	currentPage   page.PageID
	editor        *editorcmp.Cmp
	logs          page.LogPage
	status        core.StatusCmp
}

// SuggestOptions maps the suggest config section onto the subsystem's
// options, with pointer dismissal bounded by the editor zone.
func SuggestOptions(c config.SuggestConfig) suggest.Options {
	return suggest.Options{
		Enabled:     c.Enabled,
		Debounce:    c.Debounce,
		SendTimeout: c.SendTimeout,
		ContextID:   c.ContextID,
		AcceptKeys:  c.AcceptKeys,
		TriggerKeys: c.TriggerKeys,
		InBounds:    editorcmp.InBounds,
	}
}

func (a *appModel) Init() tea.Cmd {
	return tea.Batch(
		a.status.Init(),
		a.logs.Init(),
	)
}

func (a *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	a.refreshStatus()
	return a, cmd
}

func (a *appModel) update(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		msg.Height -= 1 // status bar
		a.width, a.height = msg.Width, msg.Height
		_, cmd := a.status.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, a.editor.SetSize(msg.Width, msg.Height))
		cmds = append(cmds, a.logs.SetSize(msg.Width, msg.Height))
		return tea.Batch(cmds...)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.MouseMsg:
		if a.currentPage != page.EditorPage {
			return nil
		}
		if a.editor.Intercept(msg) {
			return nil
		}
		return a.editor.Apply(msg)

	case page.PageChangeMsg:
		a.currentPage = msg.ID
		return nil

	case util.InfoMsg:
		_, cmd := a.status.Update(msg)
		return cmd

	case pubsub.Event[config.Config]:
		if msg.Type == config.EventConfigChanged {
			a.editor.Suggest().Configure(SuggestOptions(msg.Payload.Suggest))
			return util.ReportInfo("Configuration reloaded")
		}
		return nil

	case pubsub.Event[logging.Log]:
		_, cmd := a.logs.Update(msg)
		return cmd
	}

	_, cmd := a.status.Update(msg)
	cmds = append(cmds, cmd)
	_, cmd = a.logs.Update(msg)
	cmds = append(cmds, cmd)
	cmds = append(cmds, a.editor.Update(msg))
	return tea.Batch(cmds...)
}

func (a *appModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, keys.Quit) {
		a.editor.Close()
		return tea.Quit
	}

	if a.currentPage == page.LogsPage {
		if key.Matches(msg, keys.Back) {
			return util.CmdHandler(page.PageChangeMsg{ID: page.EditorPage})
		}
		_, cmd := a.logs.Update(msg)
		return cmd
	}

	if a.editor.Intercept(msg) {
		return nil
	}
	if key.Matches(msg, keys.Logs) {
		return util.CmdHandler(page.PageChangeMsg{ID: page.LogsPage})
	}
	return a.editor.Apply(msg)
}

func (a *appModel) refreshStatus() {
	buf := a.editor.Buffer()
	a.status.SetSnapshot(core.Snapshot{
		Path:  a.editor.Path(),
		Dirty: buf.Dirty(),
		Caret: buf.Caret(),
		State: a.editor.Suggest().State(),
	})
}

func (a *appModel) View() string {
	var body string
	switch a.currentPage {
	case page.LogsPage:
		body = a.logs.View()
	default:
		body = a.editor.View()
	}
	return body + "\n" + a.status.View()
}

func helpText(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}

// New creates the editor program model.
func New(opts Options) tea.Model {
	buf := opts.Buffer
	if buf == nil {
		buf = editor.New("")
	}
	model := opts.Suggest
	if model == nil {
		model = suggest.New(nil, suggest.DefaultOptions())
	}
	status := core.NewStatusCmp()
	ed := editorcmp.New(buf, model, opts.Path)
	status.SetHelpWidgetMsg(helpText(append([]key.Binding{keys.Quit, keys.Logs}, ed.BindingKeys()...)...))

	a := &appModel{
		currentPage: page.EditorPage,
		editor:      ed,
		logs:        page.NewLogsPage(opts.SessionID),
		status:      status,
	}
	a.refreshStatus()
	return a
}
