package inference

import (
	"encoding/json"
	"strings"
)

type answer struct {
	Suggestion *string `json:"suggestion"`
}

// ParseSuggestion extracts the continuation from raw model output. JSON
// answers are preferred; anything else is taken verbatim after code fences
// are removed. A continuation that restates the current line of prefix has
// that restatement cut off.
func ParseSuggestion(raw, prefix string) string {
	body := stripFences(strings.TrimSpace(raw))

	text, ok := decodeAnswer(body)
	if !ok {
		if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
			text, ok = decodeAnswer(body[i : j+1])
		}
	}
	if !ok {
		text = body
	}

	text = strings.TrimRight(text, " \t\r\n")
	return trimOverlap(text, prefix)
}

func decodeAnswer(s string) (string, bool) {
	var a answer
	if err := json.Unmarshal([]byte(s), &a); err != nil || a.Suggestion == nil {
		return "", false
	}
	return *a.Suggestion, true
}

// stripFences removes a surrounding ``` block, with or without a language tag.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	i := strings.IndexByte(s, '\n')
	if i < 0 {
		return strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	s = s[i+1:]
	s = strings.TrimRight(s, " \t\r\n")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func trimOverlap(text, prefix string) string {
	line := prefix
	if i := strings.LastIndexByte(prefix, '\n'); i >= 0 {
		line = prefix[i+1:]
	}
	line = strings.TrimLeft(line, " \t")
	if strings.TrimSpace(line) == "" {
		return text
	}
	if rest, ok := strings.CutPrefix(text, line); ok {
		return rest
	}
	return text
}
