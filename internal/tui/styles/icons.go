package styles

const (
	GhostIcon string = "👻"

	IdleIcon      string = "○"
	PendingIcon   string = "◌"
	DisplayedIcon string = "●"
	DirtyIcon     string = "●"

	ErrorIcon   string = "✖"
	WarningIcon string = "⚠"
	InfoIcon    string = "ℹ"
	Ellipsis    string = "…"
)
