package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		text   string
		caret  Position
		prefix string
		suffix string
	}{
		{"empty buffer", "", Position{}, "", ""},
		{"start of buffer", "SELECT 1", Position{0, 0}, "", "SELECT 1"},
		{"end of buffer", "SELECT 1", Position{0, 8}, "SELECT 1", ""},
		{"middle of line", "SELECT * FROM t", Position{0, 9}, "SELECT * ", "FROM t"},
		{"second line", "SELECT *\nFROM t\nWHERE", Position{1, 5}, "SELECT *\nFROM ", "t\nWHERE"},
		{"start of later line", "a\nb", Position{1, 0}, "a\n", "b"},
		{"column past line end clamps", "ab\ncd", Position{0, 40}, "ab", "\ncd"},
		{"line past end clamps", "ab\ncd", Position{9, 1}, "ab\ncd", ""},
		{"negative line clamps", "ab", Position{-1, 1}, "", "ab"},
		{"runes not bytes", "héllo wörld", Position{0, 7}, "héllo w", "örld"},
		{"wide runes", "名前 = 1", Position{0, 2}, "名前", " = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			prefix, suffix := Extract(tt.text, tt.caret)
			assert.Equal(t, tt.prefix, prefix)
			assert.Equal(t, tt.suffix, suffix)
			assert.Equal(t, tt.text, prefix+suffix)
		})
	}
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Position{3, 19}, Advance(Position{3, 14}, "users"))
	assert.Equal(t, Position{3, 14}, Advance(Position{3, 14}, ""))
	assert.Equal(t, Position{5, 3}, Advance(Position{3, 14}, "u\nx\nabc"))
	assert.Equal(t, Position{1, 0}, Advance(Position{0, 4}, "\n"))
	assert.Equal(t, Position{0, 3}, Advance(Position{0, 1}, "名前"))
}
