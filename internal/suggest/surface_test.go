package suggest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// fakeSurface is a minimal in-memory editing surface.
type fakeSurface struct {
	text    string
	caret   Position
	width   int
	mounted bool
	inserts int
}

func newFakeSurface(text string, caret Position, width int) *fakeSurface {
	return &fakeSurface{text: text, caret: caret, width: width, mounted: true}
}

func (f *fakeSurface) Caret() Position { return f.caret }

func (f *fakeSurface) Value() string { return f.text }

func (f *fakeSurface) Line(n int) (string, bool) {
	lines := strings.Split(f.text, "\n")
	if n < 0 || n >= len(lines) {
		return "", false
	}
	return lines[n], true
}

func (f *fakeSurface) CaretOffset(pos Position) (int, error) {
	if !f.mounted {
		return 0, ErrNotMounted
	}
	line, ok := f.Line(pos.Line)
	if !ok {
		return 0, fmt.Errorf("line %d out of range", pos.Line)
	}
	r := []rune(line)
	return runewidth.StringWidth(string(r[:min(pos.Col, len(r))])), nil
}

func (f *fakeSurface) VisibleWidth() (int, error) {
	if !f.mounted {
		return 0, ErrNotMounted
	}
	return f.width, nil
}

// Insert is the subsystem's edit. Only these calls are counted.
func (f *fakeSurface) Insert(pos Position, text string) error {
	f.insertAt(pos, text)
	f.inserts++
	return nil
}

func (f *fakeSurface) insertAt(pos Position, text string) {
	off := Offset(f.text, pos)
	f.text = f.text[:off] + text + f.text[off:]
	f.caret = Advance(pos, text)
}

// moveTo simulates the user moving the caret without editing.
func (f *fakeSurface) moveTo(p Position) { f.caret = p }

// typeText simulates the editor applying typed text at the caret.
func (f *fakeSurface) typeText(s string) { f.insertAt(f.caret, s) }

// deleteForward simulates the delete key: the rune after the caret goes and
// the caret stays put.
func (f *fakeSurface) deleteForward() {
	off := Offset(f.text, f.caret)
	if off >= len(f.text) {
		return
	}
	_, size := utf8.DecodeRuneInString(f.text[off:])
	f.text = f.text[:off] + f.text[off+size:]
}
