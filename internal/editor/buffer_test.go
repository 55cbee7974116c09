package editor

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerosync-co/ghosttext/internal/suggest"
)

var _ suggest.Surface = (*Buffer)(nil)

func keys(b *Buffer, msgs ...tea.KeyMsg) {
	for _, m := range msgs {
		b.Update(m)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBufferSetValue(t *testing.T) {
	t.Parallel()
	b := New("SELECT *\r\nFROM users")
	assert.Equal(t, "SELECT *\nFROM users", b.Value())
	assert.Equal(t, 2, b.LineCount())
	assert.Equal(t, suggest.Position{Line: 1, Col: 10}, b.Caret())
	assert.False(t, b.Dirty())

	empty := New("")
	assert.Equal(t, 1, empty.LineCount())
	assert.Equal(t, suggest.Position{}, empty.Caret())
}

func TestBufferInsert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		at        suggest.Position
		insert    string
		want      string
		wantCaret suggest.Position
	}{
		{"end of line", "SELECT * FROM ", suggest.Position{Line: 0, Col: 14}, "users", "SELECT * FROM users", suggest.Position{Line: 0, Col: 19}},
		{"middle keeps tail", "SELECT  FROM t", suggest.Position{Line: 0, Col: 7}, "id", "SELECT id FROM t", suggest.Position{Line: 0, Col: 9}},
		{"multi line", "SELECT \n\nx", suggest.Position{Line: 0, Col: 7}, "id,\n  name", "SELECT id,\n  name\n\nx", suggest.Position{Line: 1, Col: 6}},
		{"earlier line", "SELECT \nFROM t", suggest.Position{Line: 0, Col: 7}, "id", "SELECT id\nFROM t", suggest.Position{Line: 0, Col: 9}},
		{"unicode columns", "名前 ", suggest.Position{Line: 0, Col: 3}, "é", "名前 é", suggest.Position{Line: 0, Col: 4}},
		{"empty text moves caret", "abc", suggest.Position{Line: 0, Col: 1}, "", "abc", suggest.Position{Line: 0, Col: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := New(tt.text)
			require.NoError(t, b.Insert(tt.at, tt.insert))
			assert.Equal(t, tt.want, b.Value())
			assert.Equal(t, tt.wantCaret, b.Caret())
		})
	}
}

func TestBufferInsertOutOfRange(t *testing.T) {
	t.Parallel()
	b := New("abc")
	assert.Error(t, b.Insert(suggest.Position{Line: 2}, "x"))
	assert.Error(t, b.Insert(suggest.Position{Line: 0, Col: 9}, "x"))
	assert.Equal(t, "abc", b.Value())
	assert.False(t, b.Dirty())
}

func TestBufferEditingKeys(t *testing.T) {
	t.Parallel()
	b := New("")

	keys(b, runes("ab"), tea.KeyMsg{Type: tea.KeyEnter}, runes("cd"))
	assert.Equal(t, "ab\ncd", b.Value())
	assert.True(t, b.Dirty())

	keys(b, tea.KeyMsg{Type: tea.KeyHome}, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "abcd", b.Value())
	assert.Equal(t, suggest.Position{Line: 0, Col: 2}, b.Caret())

	keys(b, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, "abd", b.Value())
	assert.Equal(t, suggest.Position{Line: 0, Col: 2}, b.Caret(), "delete leaves the caret in place")

	keys(b, tea.KeyMsg{Type: tea.KeyEnd}, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, "abd", b.Value(), "delete at end of document")

	b.MoveTo(suggest.Position{})
	keys(b, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "abd", b.Value(), "backspace at start of document")

	keys(b, tea.KeyMsg{Type: tea.KeyEnd}, tea.KeyMsg{Type: tea.KeyEnter}, runes("x"))
	b.MoveTo(suggest.Position{Line: 0, Col: 3})
	keys(b, tea.KeyMsg{Type: tea.KeyDelete})
	assert.Equal(t, "abdx", b.Value(), "delete joins the next line")

	b.InsertTab()
	assert.Equal(t, "abd    x", b.Value())
}

func TestBufferCaretMovement(t *testing.T) {
	t.Parallel()
	b := New("long line\nab\nlonger line")
	b.MoveTo(suggest.Position{Line: 0, Col: 8})
	assert.Equal(t, suggest.Position{Line: 0, Col: 8}, b.Caret())

	keys(b, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, suggest.Position{Line: 1, Col: 2}, b.Caret())
	keys(b, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, suggest.Position{Line: 2, Col: 0}, b.Caret())
	keys(b, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, suggest.Position{Line: 1, Col: 2}, b.Caret())
	keys(b, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, suggest.Position{Line: 0, Col: 2}, b.Caret())

	b.MoveTo(suggest.Position{Line: 10, Col: -4})
	assert.Equal(t, suggest.Position{Line: 2, Col: 0}, b.Caret())
	b.MoveTo(suggest.Position{Line: 1, Col: 99})
	assert.Equal(t, suggest.Position{Line: 1, Col: 2}, b.Caret())
}

func TestBufferGeometry(t *testing.T) {
	t.Parallel()
	b := New("名前 = 1\n")

	_, err := b.VisibleWidth()
	assert.ErrorIs(t, err, suggest.ErrNotMounted)
	_, err = b.CaretOffset(suggest.Position{})
	assert.ErrorIs(t, err, suggest.ErrNotMounted)

	b.SetWidth(40)
	w, err := b.VisibleWidth()
	require.NoError(t, err)
	assert.Equal(t, 40, w)

	x, err := b.CaretOffset(suggest.Position{Line: 0, Col: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, x)

	b.MoveTo(suggest.Position{Line: 0, Col: 3})
	x, err = b.CaretOffset(b.Caret())
	require.NoError(t, err)
	assert.Equal(t, 5, x, "caret offset comes from the textarea line info")

	_, err = b.CaretOffset(suggest.Position{Line: 0, Col: 99})
	assert.Error(t, err)
	_, err = b.CaretOffset(suggest.Position{Line: 5})
	assert.Error(t, err)

	assert.Equal(t, 1, b.ColumnAt(0, 2))
	assert.Equal(t, 1, b.ColumnAt(0, 3))
	assert.Equal(t, 6, b.ColumnAt(0, 100))
	assert.Equal(t, 0, b.ColumnAt(7, 3))

	line, ok := b.Line(1)
	assert.True(t, ok)
	assert.Empty(t, line)
	_, ok = b.Line(2)
	assert.False(t, ok)
}

func TestBufferLongLinesDoNotWrap(t *testing.T) {
	t.Parallel()
	long := "SELECT id, name, email, created_at, updated_at FROM users WHERE id = 1"
	b := New(long + "\nx")
	b.SetWidth(20)
	b.MoveTo(suggest.Position{Line: 0, Col: 5})

	keys(b, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, suggest.Position{Line: 1, Col: 1}, b.Caret(), "down moves by document line")
}

func TestBufferMarkSaved(t *testing.T) {
	t.Parallel()
	b := New("a")
	b.InsertText("b")
	require.True(t, b.Dirty())
	b.MarkSaved()
	assert.False(t, b.Dirty())

	keys(b, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.True(t, b.Dirty())
	keys(b, runes("b"))
	assert.False(t, b.Dirty(), "back to the saved text")
}
