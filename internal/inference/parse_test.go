package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		prefix string
		want   string
	}{
		{"json", `{"suggestion": "users"}`, "SELECT * FROM ", "users"},
		{"json keeps leading space", `{"suggestion": " FROM users"}`, "SELECT *", " FROM users"},
		{"fenced json", "```json\n{\"suggestion\": \"users WHERE id = 1\"}\n```", "SELECT * FROM ", "users WHERE id = 1"},
		{"json with chatter", "Sure! Here you go: {\"suggestion\": \"users\"} Hope it helps.", "SELECT * FROM ", "users"},
		{"raw text fallback", "users", "SELECT * FROM ", "users"},
		{"fenced sql", "```sql\nusers\n```", "SELECT * FROM ", "users"},
		{"single line fence", "```users```", "SELECT * FROM ", "users"},
		{"repeated current line is cut", `{"suggestion": "SELECT * FROM users"}`, "SELECT * FROM ", "users"},
		{"repeated indented line is cut", `{"suggestion": "WHERE id = 1"}`, "SELECT *\n  WHERE ", "id = 1"},
		{"no overlap on empty line", `{"suggestion": "FROM t"}`, "SELECT *\n", "FROM t"},
		{"empty suggestion", `{"suggestion": ""}`, "SELECT", ""},
		{"trailing whitespace trimmed", "{\"suggestion\": \"users\\n\\n\"}", "FROM ", "users"},
		{"other json falls back to text", `{"completion": "users"}`, "FROM ", `{"completion": "users"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseSuggestion(tt.raw, tt.prefix))
		})
	}
}

func TestRenderPrompt(t *testing.T) {
	t.Parallel()

	system, prompt, err := renderPrompt(promptData{
		Dialect: "PostgreSQL",
		Schema:  "users(id int, name text)",
		Prefix:  "SELECT * FROM ",
		Suffix:  "\nLIMIT 10",
	})
	require.NoError(t, err)
	assert.Contains(t, system, "PostgreSQL")
	assert.Contains(t, prompt, "You are a PostgreSQL expert")
	assert.Contains(t, prompt, "Table Schema:\nusers(id int, name text)")
	assert.Contains(t, prompt, "Query Before Cursor:\nSELECT * FROM ")
	assert.Contains(t, prompt, "Query After Cursor:\n\nLIMIT 10")
	assert.Contains(t, prompt, `"suggestion"`)

	_, bare, err := renderPrompt(promptData{Dialect: "SQL", Prefix: "SELECT"})
	require.NoError(t, err)
	assert.NotContains(t, bare, "Table Schema")
	assert.NotContains(t, bare, "Query After Cursor")
}
