package editor

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"
	"github.com/zerosync-co/ghosttext/internal/editor"
	"github.com/zerosync-co/ghosttext/internal/suggest"
	"github.com/zerosync-co/ghosttext/internal/tui/styles"
	"github.com/zerosync-co/ghosttext/internal/tui/util"
)

const zoneID = "editor"

type EditorKeyMaps struct {
	Save  key.Binding
	Paste key.Binding
}

var editorMaps = EditorKeyMaps{
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save"),
	),
	Paste: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "paste"),
	),
}

// SavedMsg reports a successful write of the buffer.
type SavedMsg struct {
	Path string
}

// clipboardRead is swapped in tests.
var clipboardRead = clipboard.ReadAll

// Cmp hosts the document and its suggestion subsystem. Every input event
// goes through Intercept first; only events it does not consume reach the
// buffer through Apply.
type Cmp struct {
	buf     *editor.Buffer
	suggest *suggest.Model
	path    string

	width, height int
	offset        int
}

func New(buf *editor.Buffer, model *suggest.Model, path string) *Cmp {
	return &Cmp{buf: buf, suggest: model, path: path}
}

// InBounds reports whether a mouse event falls on the editor.
func InBounds(msg tea.MouseMsg) bool {
	z := zone.Get(zoneID)
	if z == nil {
		return false
	}
	return z.InBounds(msg)
}

func (c *Cmp) Buffer() *editor.Buffer {
	return c.buf
}

func (c *Cmp) Suggest() *suggest.Model {
	return c.suggest
}

func (c *Cmp) Path() string {
	return c.path
}

func (c *Cmp) BindingKeys() []key.Binding {
	return []key.Binding{editorMaps.Save, editorMaps.Paste, c.suggest.AcceptBinding()}
}

func (c *Cmp) SetSize(width, height int) tea.Cmd {
	c.width, c.height = width, height
	c.buf.SetWidth(max(0, width-c.gutterWidth()))
	c.scroll()
	return c.suggest.Update(tea.WindowSizeMsg{Width: width, Height: height}, c.buf)
}

// Intercept lets the suggestion subsystem see the event before the buffer
// does and reports whether it was consumed.
func (c *Cmp) Intercept(msg tea.Msg) bool {
	return c.suggest.Intercept(msg, c.buf)
}

// Apply edits the buffer for an event Intercept passed through.
func (c *Cmp) Apply(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd := c.applyKey(msg)
		c.scroll()
		return tea.Batch(cmd, c.suggest.Observe(msg, c.buf))
	case tea.MouseMsg:
		c.click(msg)
	}
	return nil
}

func (c *Cmp) Update(msg tea.Msg) tea.Cmd {
	return c.suggest.Update(msg, c.buf)
}

func (c *Cmp) Close() {
	c.suggest.Close()
}

func (c *Cmp) applyKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, editorMaps.Save):
		return c.save()
	case key.Matches(msg, editorMaps.Paste):
		return c.paste()
	case msg.Type == tea.KeyTab:
		c.buf.InsertTab()
		return nil
	}
	return c.buf.Update(msg)
}

func (c *Cmp) click(msg tea.MouseMsg) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	z := zone.Get(zoneID)
	if z == nil {
		return
	}
	x, y := z.Pos(msg)
	if x < 0 || y < 0 {
		return
	}
	line := util.Clamp(c.offset+y, 0, c.buf.LineCount()-1)
	col := c.buf.ColumnAt(line, max(0, x-c.gutterWidth()))
	c.buf.MoveTo(suggest.Position{Line: line, Col: col})
}

func (c *Cmp) save() tea.Cmd {
	if c.path == "" {
		return util.ReportWarn("No file to save to, start with --file")
	}
	if err := os.WriteFile(c.path, []byte(c.buf.Value()), 0o644); err != nil {
		return util.ReportError(fmt.Errorf("save %s: %w", c.path, err))
	}
	c.buf.MarkSaved()
	return tea.Batch(
		util.CmdHandler(SavedMsg{Path: c.path}),
		util.ReportInfo("Saved "+c.path),
	)
}

func (c *Cmp) paste() tea.Cmd {
	text, err := clipboardRead()
	if err != nil {
		return util.ReportError(fmt.Errorf("paste: %w", err))
	}
	c.buf.InsertText(text)
	return nil
}

// scroll keeps the caret line on screen.
func (c *Cmp) scroll() {
	if c.height <= 0 {
		return
	}
	line := c.buf.Caret().Line
	if line < c.offset {
		c.offset = line
	}
	if line >= c.offset+c.height {
		c.offset = line - c.height + 1
	}
}

func (c *Cmp) gutterWidth() int {
	return len(fmt.Sprint(c.buf.LineCount())) + 2
}

func (c *Cmp) View() string {
	if c.width <= 0 || c.height <= 0 {
		return ""
	}
	textWidth := max(0, c.width-c.gutterWidth())
	caret := c.buf.Caret()
	annotation, annotated := c.suggest.Annotation()

	lines := c.buf.Lines()
	rows := make([]string, 0, c.height)
	for i := c.offset; len(rows) < c.height; i++ {
		if annotated && i == annotation.Anchor.Line+1 {
			rows = append(rows, c.gutter(i, caret.Line)+c.ghostRow(annotation, textWidth))
			continue
		}
		if i >= len(lines) {
			rows = append(rows, "")
			continue
		}
		line := lines[i]
		var body string
		if i == caret.Line {
			body = renderCaretLine(line, caret.Col, textWidth)
		} else {
			body = runewidth.Truncate(line, textWidth, styles.Ellipsis)
		}
		rows = append(rows, c.gutter(i, caret.Line)+body)
	}
	return zone.Mark(zoneID, lipgloss.NewStyle().
		Width(c.width).
		Height(c.height).
		Render(strings.Join(rows, "\n")))
}

func (c *Cmp) gutter(line, caretLine int) string {
	width := c.gutterWidth() - 1
	if line >= c.buf.LineCount() {
		return strings.Repeat(" ", width+1)
	}
	num := fmt.Sprintf("%*d ", width-1, line+1)
	if line == caretLine {
		return styles.CurrentLineNumber().Render(num) + " "
	}
	return styles.Gutter().Render(num) + " "
}

// ghostRow draws the first line of the suggestion below its anchor, starting
// at the anchor column.
func (c *Cmp) ghostRow(a suggest.Annotation, textWidth int) string {
	x, err := c.buf.CaretOffset(a.Anchor)
	if err != nil {
		return ""
	}
	text, rest, multi := strings.Cut(a.Text, "\n")
	if multi && rest != "" {
		text += styles.Ellipsis
	}
	text = runewidth.Truncate(text, max(0, textWidth-x), styles.Ellipsis)
	return strings.Repeat(" ", x) + styles.Ghost().Render(text)
}

func renderCaretLine(line string, col, width int) string {
	runes := []rune(line)
	col = util.Clamp(col, 0, len(runes))
	before := string(runes[:col])
	under := " "
	after := ""
	if col < len(runes) {
		under = string(runes[col])
		after = string(runes[col+1:])
	}
	if runewidth.StringWidth(before)+runewidth.StringWidth(under) > width {
		return runewidth.Truncate(line, width, styles.Ellipsis)
	}
	remaining := width - runewidth.StringWidth(before) - runewidth.StringWidth(under)
	return before + styles.Cursor().Render(under) + runewidth.Truncate(after, remaining, styles.Ellipsis)
}
