package suggest

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/zerosync-co/ghosttext/internal/pubsub"
)

type Options struct {
	Enabled     bool
	Debounce    time.Duration
	SendTimeout time.Duration
	ContextID   int
	AcceptKeys  []string
	TriggerKeys []string
	InBounds    func(tea.MouseMsg) bool
	Logger      *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		Enabled:     true,
		Debounce:    DefaultDebounce,
		SendTimeout: DefaultSendTimeout,
		AcceptKeys:  []string{"tab"},
		TriggerKeys: []string{"space"},
	}
}

// Model wires the controller, overlay and resolver into the host's update
// loop. The host calls Intercept before its editor sees an input event,
// Observe after the editor applied it, and Update for everything else.
type Model struct {
	controller *Controller
	overlay    *Overlay
	resolver   Resolver
	trigger    key.Binding
	enabled    bool
	log        *slog.Logger
}

func New(sender Sender, opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "suggest")

	m := &Model{
		controller: NewController(sender,
			WithDebounce(opts.Debounce),
			WithSendTimeout(opts.SendTimeout),
			WithContextID(opts.ContextID),
			WithLogger(log),
		),
		overlay: NewOverlay(log),
		log:     log,
	}
	m.resolver.InBounds = opts.InBounds
	m.Configure(opts)
	return m
}

// Configure applies settings that may change while the editor runs.
func (m *Model) Configure(opts Options) {
	m.enabled = opts.Enabled
	m.controller.Configure(
		WithDebounce(opts.Debounce),
		WithSendTimeout(opts.SendTimeout),
		WithContextID(opts.ContextID),
	)
	accept := opts.AcceptKeys
	if len(accept) == 0 {
		accept = DefaultOptions().AcceptKeys
	}
	trigger := opts.TriggerKeys
	if len(trigger) == 0 {
		trigger = DefaultOptions().TriggerKeys
	}
	m.resolver.Accept = key.NewBinding(key.WithKeys(keyNames(accept)...), key.WithHelp(accept[0], "accept suggestion"))
	m.trigger = key.NewBinding(key.WithKeys(keyNames(trigger)...))
	if !m.enabled {
		m.Close()
	}
}

func (m *Model) State() State {
	return m.overlay.State()
}

func (m *Model) Annotation() (Annotation, bool) {
	return m.overlay.Annotation()
}

func (m *Model) AcceptBinding() key.Binding {
	return m.resolver.Accept
}

func (m *Model) Controller() *Controller {
	return m.controller
}

// Intercept reports whether the event was consumed and must not reach the
// editor.
func (m *Model) Intercept(msg tea.Msg, surface Surface) bool {
	switch m.resolver.Resolve(m.overlay.State(), msg) {
	case ActionAccept:
		if s, ok := m.overlay.Accept(surface); ok {
			m.log.Debug("suggestion accepted", "version", s.OriginVersion, "anchor", s.Anchor, "caret", surface.Caret())
		}
		return true
	case ActionDismiss:
		m.overlay.Dismiss()
	}
	return false
}

// Observe starts a debounced request when the applied event is a trigger key.
func (m *Model) Observe(msg tea.Msg, surface Surface) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !m.enabled || !key.Matches(km, m.trigger) {
		return nil
	}
	caret := surface.Caret()
	m.overlay.Begin(caret)
	return m.controller.Trigger(surface.Value(), caret)
}

func (m *Model) Update(msg tea.Msg, surface Surface) tea.Cmd {
	switch msg := msg.(type) {
	case debounceMsg:
		req, cmd, ok := m.controller.fire(msg)
		if !ok {
			return nil
		}
		m.log.Debug("dispatching suggestion request", "version", req.Version, "anchor", req.Anchor)
		return cmd
	case sendResultMsg:
		if msg.err != nil && m.controller.sendFailed(msg.version, msg.err) {
			m.settle()
		}
	case pubsub.Event[Suggestion]:
		m.respond(msg.Payload, surface)
	case tea.WindowSizeMsg:
		m.overlay.Revisit(surface)
	}
	return nil
}

// Close drops all suggestion state, as on editor teardown.
func (m *Model) Close() {
	m.controller.Cancel()
	m.overlay.Reset()
}

func (m *Model) respond(s Suggestion, surface Surface) {
	switch m.controller.Resolve(s, surface.Caret(), surface.Value()) {
	case VerdictStale:
		m.log.Debug("dropping stale suggestion", "version", s.OriginVersion, "current", m.controller.Version())
	case VerdictMoved:
		m.log.Debug("dropping suggestion for edited buffer", "version", s.OriginVersion, "anchor", s.Anchor)
		m.settle()
	case VerdictCurrent:
		if s.Empty() {
			m.settle()
			return
		}
		m.overlay.Present(s, surface)
	}
}

func (m *Model) settle() {
	if !m.controller.Busy() {
		m.overlay.Settle()
	}
}

// keyNames maps config spellings onto bubbletea key strings.
func keyNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		switch n {
		case "space":
			out = append(out, " ")
		default:
			out = append(out, n)
		}
	}
	return out
}
