package suggest

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mattn/go-runewidth"
)

var ErrNotMounted = errors.New("suggest: surface not mounted")

type State int

const (
	StateIdle State = iota
	StatePending
	StateDisplayed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateDisplayed:
		return "displayed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Surface is what the subsystem needs from the text editing widget.
type Surface interface {
	Caret() Position
	Value() string
	// Line returns the text of line n, or false if the buffer has no such line.
	Line(n int) (string, bool)
	// CaretOffset is the horizontal cell offset of pos within the text area.
	CaretOffset(pos Position) (int, error)
	// VisibleWidth is the number of cells available for text.
	VisibleWidth() (int, error)
	// Insert places text at pos as one edit and moves the caret to its end.
	Insert(pos Position, text string) error
}

// Annotation is the transient, non-document content the host draws.
type Annotation struct {
	Anchor Position
	Text   string
}

// Overlay owns the displayed suggestion. It never touches the document
// except through Accept.
type Overlay struct {
	state State
	shown *Suggestion
	held  *Suggestion
	// text is the document the shown or held suggestion was validated against.
	text string
	log  *slog.Logger
}

func NewOverlay(log *slog.Logger) *Overlay {
	if log == nil {
		log = slog.Default()
	}
	return &Overlay{log: log}
}

func (o *Overlay) State() State {
	return o.state
}

func (o *Overlay) Annotation() (Annotation, bool) {
	if o.state != StateDisplayed || o.shown == nil {
		return Annotation{}, false
	}
	return Annotation{Anchor: o.shown.Anchor, Text: o.shown.Text}, true
}

// Held returns a valid suggestion that was suppressed for display.
func (o *Overlay) Held() (Suggestion, bool) {
	if o.held == nil {
		return Suggestion{}, false
	}
	return *o.held, true
}

// Begin enters Pending for a request anchored at anchor. A held suggestion
// survives only if it belongs to the same anchor.
func (o *Overlay) Begin(anchor Position) {
	if o.held != nil && o.held.Anchor != anchor {
		o.held = nil
	}
	o.shown = nil
	o.state = StatePending
}

// Settle leaves Pending when nothing more is expected.
func (o *Overlay) Settle() {
	if o.state == StatePending {
		o.state = StateIdle
	}
}

// Present displays s unless the suppression rules apply, in which case s is
// held for a later Revisit and the overlay goes Idle.
func (o *Overlay) Present(s Suggestion, surface Surface) bool {
	o.text = surface.Value()
	if reason, suppressed := Suppressed(s, surface); suppressed {
		o.log.Debug("suggestion suppressed", "reason", reason, "version", s.OriginVersion, "anchor", s.Anchor)
		o.shown = nil
		o.held = &s
		o.state = StateIdle
		return false
	}
	o.shown = &s
	o.held = nil
	o.state = StateDisplayed
	return true
}

// Revisit shows a held suggestion once it fits, the caret is back at its
// anchor and the document is unchanged. A held suggestion for an edited
// document is dropped.
func (o *Overlay) Revisit(surface Surface) bool {
	if o.held == nil || o.state != StateIdle {
		return false
	}
	if surface.Value() != o.text {
		o.held = nil
		return false
	}
	if surface.Caret() != o.held.Anchor {
		return false
	}
	if _, suppressed := Suppressed(*o.held, surface); suppressed {
		return false
	}
	s := *o.held
	o.held = nil
	o.shown = &s
	o.state = StateDisplayed
	return true
}

// Accept inserts the displayed suggestion at its anchor. The overlay is
// Idle before the edit is attempted, so a second Accept is a no-op.
func (o *Overlay) Accept(surface Surface) (Suggestion, bool) {
	if o.state != StateDisplayed || o.shown == nil {
		return Suggestion{}, false
	}
	s, text := *o.shown, o.text
	o.Reset()
	if surface.Value() != text {
		o.log.Debug("not accepting suggestion for edited buffer", "version", s.OriginVersion, "anchor", s.Anchor)
		return s, false
	}
	if err := surface.Insert(s.Anchor, s.Text); err != nil {
		o.log.Warn("accepting suggestion failed", "error", err, "anchor", s.Anchor)
		return s, false
	}
	return s, true
}

func (o *Overlay) Dismiss() bool {
	if o.state != StateDisplayed {
		return false
	}
	o.Reset()
	return true
}

func (o *Overlay) Reset() {
	o.state = StateIdle
	o.shown = nil
	o.held = nil
	o.text = ""
}

// Suppressed applies the display rules: the suggestion must fit between the
// caret and the right edge, and the line below the caret must be blank.
// Geometry failures suppress as well.
func Suppressed(s Suggestion, surface Surface) (reason string, suppressed bool) {
	defer func() {
		if r := recover(); r != nil {
			reason, suppressed = fmt.Sprintf("geometry panic: %v", r), true
		}
	}()

	x, err := surface.CaretOffset(s.Anchor)
	if err != nil {
		return "geometry: " + err.Error(), true
	}
	width, err := surface.VisibleWidth()
	if err != nil {
		return "geometry: " + err.Error(), true
	}
	if x+TextWidth(s.Text) > width {
		return "overflow", true
	}
	if next, ok := surface.Line(s.Anchor.Line + 1); ok && strings.TrimSpace(next) != "" {
		return "next line not empty", true
	}
	return "", false
}

// TextWidth is the cell width of the widest line of text.
func TextWidth(text string) int {
	widest := 0
	for _, line := range strings.Split(text, "\n") {
		widest = max(widest, runewidth.StringWidth(line))
	}
	return widest
}
