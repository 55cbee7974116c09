package suggest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenSurface struct {
	*fakeSurface
	panicOnWidth bool
	insertErr    error
}

func (b *brokenSurface) VisibleWidth() (int, error) {
	if b.panicOnWidth {
		panic("layout not ready")
	}
	return b.fakeSurface.VisibleWidth()
}

func (b *brokenSurface) Insert(pos Position, text string) error {
	if b.insertErr != nil {
		return b.insertErr
	}
	return b.fakeSurface.Insert(pos, text)
}

func TestSuppressed(t *testing.T) {
	t.Parallel()

	anchor := Position{0, 14}
	tests := []struct {
		name       string
		text       string
		width      int
		suggestion string
		want       bool
	}{
		{name: "fits", text: "SELECT * FROM ", width: 40, suggestion: "users", want: false},
		{name: "fits exactly", text: "SELECT * FROM ", width: 19, suggestion: "users", want: false},
		{name: "overflows by one", text: "SELECT * FROM ", width: 18, suggestion: "users", want: true},
		{name: "wide runes count double", text: "SELECT * FROM ", width: 18, suggestion: "名前", want: false},
		{name: "wide runes overflow", text: "SELECT * FROM ", width: 18, suggestion: "名前x", want: true},
		{name: "widest line decides", text: "SELECT * FROM ", width: 20, suggestion: "a\nabcdefghi", want: true},
		{name: "next line has content", text: "SELECT * FROM \nWHERE id = 1", width: 80, suggestion: "users", want: true},
		{name: "next line whitespace only", text: "SELECT * FROM \n   \t", width: 80, suggestion: "users", want: false},
		{name: "next line empty", text: "SELECT * FROM \n", width: 80, suggestion: "users", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			surface := newFakeSurface(tt.text, anchor, tt.width)
			_, got := Suppressed(Suggestion{Text: tt.suggestion, Anchor: anchor}, surface)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSuppressedOnGeometryFailure(t *testing.T) {
	t.Parallel()

	t.Run("not mounted", func(t *testing.T) {
		surface := newFakeSurface("a ", Position{0, 2}, 80)
		surface.mounted = false
		reason, ok := Suppressed(Suggestion{Text: "b", Anchor: Position{0, 2}}, surface)
		assert.True(t, ok)
		assert.Contains(t, reason, "not mounted")
	})

	t.Run("panic", func(t *testing.T) {
		surface := &brokenSurface{fakeSurface: newFakeSurface("a ", Position{0, 2}, 80), panicOnWidth: true}
		reason, ok := Suppressed(Suggestion{Text: "b", Anchor: Position{0, 2}}, surface)
		assert.True(t, ok)
		assert.Contains(t, reason, "layout not ready")
	})
}

func TestOverlayPresentAndAccept(t *testing.T) {
	t.Parallel()
	surface := newFakeSurface("SELECT * FROM ", Position{0, 14}, 80)
	o := NewOverlay(nil)

	o.Begin(surface.Caret())
	require.Equal(t, StatePending, o.State())
	_, ok := o.Annotation()
	assert.False(t, ok)

	require.True(t, o.Present(Suggestion{Text: "users", OriginVersion: 1, Anchor: Position{0, 14}}, surface))
	assert.Equal(t, StateDisplayed, o.State())
	a, ok := o.Annotation()
	require.True(t, ok)
	assert.Equal(t, Annotation{Anchor: Position{0, 14}, Text: "users"}, a)

	s, ok := o.Accept(surface)
	require.True(t, ok)
	assert.Equal(t, "users", s.Text)
	assert.Equal(t, "SELECT * FROM users", surface.Value())
	assert.Equal(t, Position{0, 19}, surface.Caret())
	assert.Equal(t, StateIdle, o.State())

	_, ok = o.Accept(surface)
	assert.False(t, ok, "second accept is a no-op")
	assert.Equal(t, 1, surface.inserts)
}

func TestOverlayAcceptMultiLine(t *testing.T) {
	t.Parallel()
	surface := newFakeSurface("SELECT ", Position{0, 7}, 80)
	o := NewOverlay(nil)
	o.Begin(surface.Caret())
	require.True(t, o.Present(Suggestion{Text: "id,\n  name", Anchor: Position{0, 7}}, surface))

	_, ok := o.Accept(surface)
	require.True(t, ok)
	assert.Equal(t, "SELECT id,\n  name", surface.Value())
	assert.Equal(t, Position{1, 6}, surface.Caret())
}

func TestOverlayAcceptRefusesEditedBuffer(t *testing.T) {
	t.Parallel()
	surface := newFakeSurface("SELECT  FROM t", Position{0, 7}, 80)
	o := NewOverlay(nil)
	o.Begin(surface.Caret())
	require.True(t, o.Present(Suggestion{Text: "id", Anchor: Position{0, 7}}, surface))

	surface.deleteForward()
	_, ok := o.Accept(surface)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, o.State())
	assert.Equal(t, "SELECT FROM t", surface.Value())
	assert.Zero(t, surface.inserts)
}

func TestOverlayAcceptFailureStillIdle(t *testing.T) {
	t.Parallel()
	surface := &brokenSurface{
		fakeSurface: newFakeSurface("a ", Position{0, 2}, 80),
		insertErr:   errors.New("read only"),
	}
	o := NewOverlay(nil)
	o.Begin(surface.Caret())
	require.True(t, o.Present(Suggestion{Text: "b", Anchor: Position{0, 2}}, surface))

	_, ok := o.Accept(surface)
	assert.False(t, ok)
	assert.Equal(t, StateIdle, o.State())
	assert.Equal(t, "a ", surface.Value())
}

func TestOverlayDismiss(t *testing.T) {
	t.Parallel()
	surface := newFakeSurface("a ", Position{0, 2}, 80)
	o := NewOverlay(nil)

	assert.False(t, o.Dismiss(), "nothing displayed")

	o.Begin(surface.Caret())
	require.True(t, o.Present(Suggestion{Text: "b", Anchor: Position{0, 2}}, surface))
	assert.True(t, o.Dismiss())
	assert.Equal(t, StateIdle, o.State())
	assert.Equal(t, "a ", surface.Value())
}

func TestOverlayHoldAndRevisit(t *testing.T) {
	t.Parallel()
	surface := newFakeSurface("SELECT * FROM ", Position{0, 14}, 16)
	o := NewOverlay(nil)
	s := Suggestion{Text: "users", OriginVersion: 3, Anchor: Position{0, 14}}

	o.Begin(surface.Caret())
	assert.False(t, o.Present(s, surface))
	assert.Equal(t, StateIdle, o.State())
	held, ok := o.Held()
	require.True(t, ok)
	assert.Equal(t, s, held)

	assert.False(t, o.Revisit(surface), "still too narrow")

	surface.width = 80
	surface.moveTo(Position{0, 3})
	assert.False(t, o.Revisit(surface), "caret left the anchor")

	surface.moveTo(Position{0, 14})
	require.True(t, o.Revisit(surface))
	assert.Equal(t, StateDisplayed, o.State())
	_, ok = o.Held()
	assert.False(t, ok)
}

func TestOverlayRevisitDropsHeldForEditedBuffer(t *testing.T) {
	t.Parallel()
	surface := newFakeSurface("SELECT * FROM  x", Position{0, 14}, 16)
	o := NewOverlay(nil)

	o.Begin(surface.Caret())
	require.False(t, o.Present(Suggestion{Text: "users", Anchor: Position{0, 14}}, surface))

	surface.deleteForward()
	surface.width = 80
	assert.False(t, o.Revisit(surface))
	assert.Equal(t, StateIdle, o.State())
	_, ok := o.Held()
	assert.False(t, ok)
}

func TestOverlayBeginDropsHeldForOtherAnchor(t *testing.T) {
	t.Parallel()
	surface := newFakeSurface("SELECT * FROM ", Position{0, 14}, 10)
	o := NewOverlay(nil)

	o.Begin(surface.Caret())
	o.Present(Suggestion{Text: "users", Anchor: Position{0, 14}}, surface)

	o.Begin(Position{0, 14})
	_, ok := o.Held()
	assert.True(t, ok, "same anchor keeps the held suggestion")

	o.Begin(Position{0, 7})
	_, ok = o.Held()
	assert.False(t, ok)
	assert.Equal(t, StatePending, o.State())
}

func TestOverlaySettle(t *testing.T) {
	t.Parallel()
	o := NewOverlay(nil)
	o.Settle()
	assert.Equal(t, StateIdle, o.State())

	o.Begin(Position{})
	o.Settle()
	assert.Equal(t, StateIdle, o.State())
}

func TestStateString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "displayed", StateDisplayed.String())
	assert.Equal(t, "state(9)", State(9).String())
}
