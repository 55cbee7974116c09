package util

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type InfoType int

const (
	InfoTypeInfo InfoType = iota
	InfoTypeWarn
	InfoTypeError
)

// InfoMsg is a transient status line message.
type InfoMsg struct {
	Type InfoType
	Msg  string
	TTL  time.Duration
}

func CmdHandler(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}

func ReportInfo(info string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeInfo, Msg: info})
}

func ReportWarn(warn string) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeWarn, Msg: warn})
}

func ReportError(err error) tea.Cmd {
	return CmdHandler(InfoMsg{Type: InfoTypeError, Msg: err.Error()})
}

func Clamp(v, low, high int) int {
	if high < low {
		low, high = high, low
	}
	return min(high, max(low, v))
}
