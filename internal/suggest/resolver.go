package suggest

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type Action int

const (
	ActionPass Action = iota
	ActionAccept
	ActionDismiss
)

func (a Action) String() string {
	switch a {
	case ActionAccept:
		return "accept"
	case ActionDismiss:
		return "dismiss"
	default:
		return "pass"
	}
}

// Resolver routes editor input while a suggestion is on screen.
type Resolver struct {
	Accept key.Binding
	// InBounds limits pointer dismissal to the editing surface. Nil accepts
	// presses anywhere.
	InBounds func(tea.MouseMsg) bool
}

// Resolve decides from the state observed when the event arrived. Only a
// Displayed overlay reacts; everything else passes through untouched.
func (r Resolver) Resolve(state State, msg tea.Msg) Action {
	if state != StateDisplayed {
		return ActionPass
	}
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, r.Accept) {
			return ActionAccept
		}
		return ActionDismiss
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || tea.MouseEvent(msg).IsWheel() {
			return ActionPass
		}
		if r.InBounds != nil && !r.InBounds(msg) {
			return ActionPass
		}
		return ActionDismiss
	}
	return ActionPass
}
