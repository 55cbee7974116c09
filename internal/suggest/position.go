package suggest

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Position is a caret location. Line and Col are zero based; Col counts runes.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Advance returns where the caret ends up after text is inserted at p.
func Advance(p Position, text string) Position {
	nl := strings.Count(text, "\n")
	if nl == 0 {
		return Position{Line: p.Line, Col: p.Col + utf8.RuneCountInString(text)}
	}
	last := text[strings.LastIndexByte(text, '\n')+1:]
	return Position{Line: p.Line + nl, Col: utf8.RuneCountInString(last)}
}
