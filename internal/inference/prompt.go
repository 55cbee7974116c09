package inference

import (
	"bytes"
	"fmt"
	"text/template"
)

const systemPrompt = `You complete {{.Dialect}} queries inside an editor. Answer with a single JSON object and nothing else.`

const autocompletePrompt = `You are a {{.Dialect}} expert. Given a partial {{.Dialect}} query and the current context, provide the most relevant, syntactically correct and contextually appropriate continuation for the query at the cursor.

Guidelines:
1. Use the columns and tables listed in the provided table schema.
2. Generate only the {{.Dialect}} code that directly follows the cursor without overlapping or repeating existing content.
3. Keep the continuation short: finish the current clause rather than the whole query.
4. Respond with a valid JSON object as specified below.
{{if .Schema}}
Table Schema:
{{.Schema}}
{{end}}
Query Before Cursor:
{{.Prefix}}
{{if .Suffix}}
Query After Cursor:
{{.Suffix}}
{{end}}
Response Format:
{
    "suggestion": "The most relevant continuation of the query as a string fragment."
}
`

var (
	systemTemplate = template.Must(template.New("system").Parse(systemPrompt))
	promptTemplate = template.Must(template.New("autocomplete").Parse(autocompletePrompt))
)

type promptData struct {
	Dialect string
	Schema  string
	Prefix  string
	Suffix  string
}

func renderPrompt(data promptData) (system, prompt string, err error) {
	var sb, pb bytes.Buffer
	if err := systemTemplate.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render system prompt: %w", err)
	}
	if err := promptTemplate.Execute(&pb, data); err != nil {
		return "", "", fmt.Errorf("render prompt: %w", err)
	}
	return sb.String(), pb.String(), nil
}
