package suggest

import (
	"strings"
	"unicode/utf8"
)

// Offset converts pos into a byte offset into text. Positions outside the
// buffer are clamped: lines past the end map to len(text) and columns past
// the end of their line map to the line end.
func Offset(text string, pos Position) int {
	if pos.Line < 0 {
		return 0
	}

	start := 0
	for line := 0; line < pos.Line; line++ {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			return len(text)
		}
		start += i + 1
	}

	end := len(text)
	if i := strings.IndexByte(text[start:], '\n'); i >= 0 {
		end = start + i
	}

	off := start
	for col := 0; col < pos.Col && off < end; col++ {
		_, size := utf8.DecodeRuneInString(text[off:end])
		off += size
	}
	return off
}

// Extract splits the buffer at the caret.
func Extract(text string, caret Position) (prefix, suffix string) {
	off := Offset(text, caret)
	return text[:off], text[off:]
}
