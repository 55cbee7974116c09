package logging

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerosync-co/ghosttext/internal/db"
)

func newTestService(t *testing.T) Service {
	t.Helper()
	conn, err := db.Connect(context.Background(), t.TempDir())
	require.NoError(t, err)
	svc := NewService(db.New(conn))
	t.Cleanup(func() {
		svc.Shutdown()
		conn.Close()
	})
	return svc
}

func TestParseRecords(t *testing.T) {
	t.Parallel()
	input := []byte(`time=2025-06-10T12:34:56.789Z level=WARN msg="request failed" session_id=abc version=3 error="socket closed"
time=bogus level=INFO msg=second
`)
	entries, err := parseRecords(input)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "warn", first.Level)
	assert.Equal(t, "request failed", first.Message)
	assert.Equal(t, "abc", first.SessionID)
	assert.Equal(t, map[string]string{"version": "3", "error": "socket closed"}, first.Attributes)
	assert.Equal(t, time.Date(2025, 6, 10, 12, 34, 56, 789000000, time.UTC), first.Timestamp)

	assert.False(t, entries[1].Timestamp.IsZero(), "unparsable time falls back to now")
}

func TestParseRecordsFromTextHandler(t *testing.T) {
	t.Parallel()
	var captured []byte
	h := slog.NewTextHandler(writerFunc(func(p []byte) (int, error) {
		captured = append(captured, p...)
		return len(p), nil
	}), nil)
	slog.New(h).Info("suggestion accepted", "anchor", "3:14")

	entries, err := parseRecords(captured)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "3:14", entries[0].Attributes["anchor"])
}

func TestServiceCreateAndList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sub := svc.Subscribe(ctx)

	created, err := svc.Create(ctx, Log{
		SessionID:  "s1",
		Level:      "debug",
		Message:    "dispatching suggestion request",
		Attributes: map[string]string{"version": "1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "1", created.Attributes["version"])

	select {
	case ev := <-sub:
		assert.Equal(t, EventLogCreated, ev.Type)
		assert.Equal(t, created.ID, ev.Payload.ID)
	case <-time.After(time.Second):
		t.Fatal("no log event published")
	}

	_, err = svc.Create(ctx, Log{Message: "no session"})
	require.NoError(t, err)

	bySession, err := svc.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, bySession, 1)
	assert.Equal(t, "debug", bySession[0].Level)

	all, err := svc.ListAll(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, e := range all {
		assert.NotNil(t, e.Attributes)
	}
}

func TestServicePrune(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Log{Message: "old", Timestamp: time.Now().Add(-48 * time.Hour)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Log{Message: "new"})
	require.NoError(t, err)

	n, err := svc.Prune(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := svc.ListAll(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "new", all[0].Message)
}

func TestRecoverPanicRunsCleanup(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cleaned := false
	func() {
		defer RecoverPanic("test", func() { cleaned = true })
		panic("boom")
	}()
	assert.True(t, cleaned)

	matches, err := filepath.Glob(filepath.Join(dir, "ghosttext-panic-test-*.log"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(p []byte) (int, error) { return f(p) }
