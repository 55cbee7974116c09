// Package editor holds the in-memory document edited by the TUI.
package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/zerosync-co/ghosttext/internal/suggest"
)

// noWrap is wide enough that the textarea never soft wraps, so every
// document line is exactly one screen row and vertical movement is by
// document line.
const noWrap = 1 << 20

const tab = "    "

// Buffer is a textarea-backed document with a single caret. The textarea
// owns the text, the key map and the caret; Buffer adds the geometry the
// suggestion overlay needs. Columns count runes.
type Buffer struct {
	ta    textarea.Model
	saved string
	width int
}

func New(text string) *Buffer {
	ta := textarea.New()
	ta.Prompt = ""
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.MaxHeight = 0
	ta.MaxWidth = 0
	ta.KeyMap.Paste.SetEnabled(false)
	ta.Cursor.SetMode(cursor.CursorStatic)
	ta.SetWidth(noWrap)
	ta.Focus()

	b := &Buffer{ta: ta}
	b.SetValue(text)
	return b
}

// SetValue replaces the document, moves the caret to its end and marks the
// buffer clean.
func (b *Buffer) SetValue(text string) {
	b.ta.SetValue(normalize(text))
	b.saved = b.ta.Value()
}

func (b *Buffer) Value() string {
	return b.ta.Value()
}

// Lines returns the document split into lines.
func (b *Buffer) Lines() []string {
	return strings.Split(b.ta.Value(), "\n")
}

func (b *Buffer) Caret() suggest.Position {
	li := b.ta.LineInfo()
	return suggest.Position{Line: b.ta.Line(), Col: li.StartColumn + li.ColumnOffset}
}

func (b *Buffer) LineCount() int {
	return b.ta.LineCount()
}

func (b *Buffer) Line(n int) (string, bool) {
	lines := b.Lines()
	if n < 0 || n >= len(lines) {
		return "", false
	}
	return lines[n], true
}

// Dirty reports whether the document differs from what was last loaded or
// saved.
func (b *Buffer) Dirty() bool {
	return b.ta.Value() != b.saved
}

func (b *Buffer) MarkSaved() {
	b.saved = b.ta.Value()
}

// SetWidth records how many cells the host gives the text area. Zero means
// the buffer is not on screen.
func (b *Buffer) SetWidth(w int) {
	b.width = w
}

func (b *Buffer) VisibleWidth() (int, error) {
	if b.width <= 0 {
		return 0, suggest.ErrNotMounted
	}
	return b.width, nil
}

func (b *Buffer) CaretOffset(pos suggest.Position) (int, error) {
	if b.width <= 0 {
		return 0, suggest.ErrNotMounted
	}
	line, ok := b.Line(pos.Line)
	if !ok {
		return 0, fmt.Errorf("line %d out of range", pos.Line)
	}
	runes := []rune(line)
	if pos.Col < 0 || pos.Col > len(runes) {
		return 0, fmt.Errorf("column %d out of range on line %d", pos.Col, pos.Line)
	}
	if pos == b.Caret() {
		return b.ta.LineInfo().CharOffset, nil
	}
	return runewidth.StringWidth(string(runes[:pos.Col])), nil
}

// Insert places text at pos as a single edit and leaves the caret after it.
func (b *Buffer) Insert(pos suggest.Position, text string) error {
	line, ok := b.Line(pos.Line)
	if !ok {
		return fmt.Errorf("insert: line %d out of range", pos.Line)
	}
	if n := len([]rune(line)); pos.Col < 0 || pos.Col > n {
		return fmt.Errorf("insert: column %d out of range on line %d", pos.Col, pos.Line)
	}
	b.MoveTo(pos)
	b.ta.InsertString(normalize(text))
	return nil
}

// InsertText types text at the caret.
func (b *Buffer) InsertText(text string) {
	b.ta.InsertString(normalize(text))
}

func (b *Buffer) InsertTab() {
	b.ta.InsertString(tab)
}

// MoveTo places the caret, clamped into the document.
func (b *Buffer) MoveTo(pos suggest.Position) {
	line := max(0, min(pos.Line, b.ta.LineCount()-1))
	for b.ta.Line() > line {
		b.ta.CursorUp()
	}
	for b.ta.Line() < line {
		b.ta.CursorDown()
	}
	b.ta.SetCursor(pos.Col)
}

// ColumnAt maps a cell offset on line n to the nearest rune column.
func (b *Buffer) ColumnAt(n, cells int) int {
	line, ok := b.Line(n)
	if !ok {
		return 0
	}
	x := 0
	runes := []rune(line)
	for i, r := range runes {
		w := runewidth.RuneWidth(r)
		if x+w > cells {
			return i
		}
		x += w
	}
	return len(runes)
}

// Update lets the textarea apply an editing key.
func (b *Buffer) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	b.ta, cmd = b.ta.Update(msg)
	return cmd
}

func normalize(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
