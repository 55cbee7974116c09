package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	primary    = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	muted      = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}
	subtle     = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	text       = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#DDDDDD"}
	background = lipgloss.AdaptiveColor{Light: "#F2F2F2", Dark: "#1E1E1E"}
	warning    = lipgloss.AdaptiveColor{Light: "#D48A00", Dark: "#F5A623"}
	danger     = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF5F56"}
	info       = lipgloss.AdaptiveColor{Light: "#1F78B4", Dark: "#4FB3FF"}

	ghost = Fade(text, background, 0.55)
)

// Fade moves fg toward bg by t in Lab space, separately for light and dark
// terminals. Colors that do not parse as hex are left as fg.
func Fade(fg, bg lipgloss.AdaptiveColor, t float64) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{
		Light: blend(fg.Light, bg.Light, t),
		Dark:  blend(fg.Dark, bg.Dark, t),
	}
}

func blend(from, to string, t float64) string {
	c1, err := colorful.Hex(from)
	if err != nil {
		return from
	}
	c2, err := colorful.Hex(to)
	if err != nil {
		return from
	}
	return c1.BlendLab(c2, t).Clamped().Hex()
}

func BaseStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(text)
}

func Padded() lipgloss.Style {
	return BaseStyle().Padding(0, 1)
}

func Bold() lipgloss.Style {
	return BaseStyle().Bold(true)
}

func Muted() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(muted)
}

// Ghost renders suggestion text. It must read as an annotation, not content.
func Ghost() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ghost).Italic(true)
}

func Gutter() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(subtle)
}

func CurrentLineNumber() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(primary)
}

func Cursor() lipgloss.Style {
	return lipgloss.NewStyle().Reverse(true)
}

func StatusBar() lipgloss.Style {
	return Padded().Background(background).Foreground(text)
}

func HelpWidget() lipgloss.Style {
	return Padded().Background(muted).Foreground(background).Bold(true)
}

func Message(level string) lipgloss.Style {
	s := Padded().Foreground(background)
	switch level {
	case "warn":
		return s.Background(warning)
	case "error":
		return s.Background(danger)
	default:
		return s.Background(info)
	}
}

func Selected() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(primary)
}
