package suggest

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestResolver(t *testing.T) {
	t.Parallel()

	r := Resolver{
		Accept: key.NewBinding(key.WithKeys("tab")),
		InBounds: func(m tea.MouseMsg) bool {
			return m.X < 40 && m.Y < 10
		},
	}
	tab := tea.KeyMsg{Type: tea.KeyTab}
	letter := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}
	press := tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	outside := tea.MouseMsg{X: 60, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	wheel := tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown}
	release := tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}

	tests := []struct {
		name  string
		state State
		msg   tea.Msg
		want  Action
	}{
		{"accept while displayed", StateDisplayed, tab, ActionAccept},
		{"other key dismisses", StateDisplayed, letter, ActionDismiss},
		{"escape dismisses", StateDisplayed, tea.KeyMsg{Type: tea.KeyEsc}, ActionDismiss},
		{"press inside dismisses", StateDisplayed, press, ActionDismiss},
		{"press outside passes", StateDisplayed, outside, ActionPass},
		{"wheel passes", StateDisplayed, wheel, ActionPass},
		{"release passes", StateDisplayed, release, ActionPass},
		{"tab while idle passes", StateIdle, tab, ActionPass},
		{"tab while pending passes", StatePending, tab, ActionPass},
		{"press while pending passes", StatePending, press, ActionPass},
		{"other messages pass", StateDisplayed, tea.WindowSizeMsg{Width: 80}, ActionPass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.Resolve(tt.state, tt.msg))
		})
	}
}

func TestResolverWithoutBounds(t *testing.T) {
	t.Parallel()
	r := Resolver{Accept: key.NewBinding(key.WithKeys("tab"))}
	press := tea.MouseMsg{X: 500, Y: 500, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
	assert.Equal(t, ActionDismiss, r.Resolve(StateDisplayed, press))
}

func TestActionString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "accept", ActionAccept.String())
	assert.Equal(t, "dismiss", ActionDismiss.String())
	assert.Equal(t, "pass", ActionPass.String())
}
