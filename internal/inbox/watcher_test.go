package inbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/albeorla/task-pri-lite-sub001/internal/capture"
	"github.com/albeorla/task-pri-lite-sub001/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

var now = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("text with source prefix", func(t *testing.T) {
		path := writeFile(t, dir, "email-invoice.txt", "Please pay the invoice by friday")
		item, err := ReadFile(path, now)
		require.NoError(t, err)
		assert.Equal(t, capture.SourceEmail, item.Source())
		assert.Equal(t, "Please pay the invoice by friday", item.Text())
		assert.Equal(t, now, item.Timestamp())
		_, manual := item.Entry()
		assert.False(t, manual)
	})

	t.Run("text without prefix", func(t *testing.T) {
		path := writeFile(t, dir, "notes.txt", "fyi the wiki moved")
		item, err := ReadFile(path, now)
		require.NoError(t, err)
		assert.Equal(t, capture.SourceOther, item.Source())
	})

	t.Run("manual entry", func(t *testing.T) {
		path := writeFile(t, dir, "ship.toml", `
title = "Ship release"
priority = 1
due_date = 2026-10-20T17:00:00Z
tags = ["work"]
`)
		item, err := ReadFile(path, now)
		require.NoError(t, err)
		assert.Equal(t, capture.SourceManual, item.Source())
		entry, ok := item.Entry()
		require.True(t, ok)
		assert.Equal(t, "Ship release", entry.Title)
		assert.Equal(t, 1, entry.Priority)
		require.NotNil(t, entry.DueDate)
		assert.True(t, entry.DueDate.Equal(time.Date(2026, 10, 20, 17, 0, 0, 0, time.UTC)))
		assert.Equal(t, []string{"work"}, entry.Tags)
	})

	t.Run("manual entry without title", func(t *testing.T) {
		path := writeFile(t, dir, "empty.toml", `priority = 2`)
		_, err := ReadFile(path, now)
		assert.ErrorContains(t, err, "title is required")
	})

	t.Run("bad toml", func(t *testing.T) {
		path := writeFile(t, dir, "bad.toml", `title = `)
		_, err := ReadFile(path, now)
		assert.Error(t, err)
	})

	t.Run("unsupported", func(t *testing.T) {
		path := writeFile(t, dir, "photo.png", "x")
		_, err := ReadFile(path, now)
		assert.ErrorIs(t, err, ErrUnsupportedFile)
	})
}

func TestSupported(t *testing.T) {
	assert.True(t, supported("/in/a.txt"))
	assert.True(t, supported("/in/A.TOML"))
	assert.False(t, supported("/in/.a.txt.swp"))
	assert.False(t, supported("/in/.hidden.txt"))
	assert.False(t, supported("/in/a.md"))
}

func receive(t *testing.T, w *Watcher) Capture {
	t.Helper()
	select {
	case c := <-w.Captures():
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for capture")
		return Capture{}
	}
}

func TestWatcher_CapturesExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "chat-standup.txt", "need to update the roadmap")

	logger := logging.NewTestLogger()
	w, err := NewWatcher(dir, logger.Logger, WithSettle(20*time.Millisecond), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, w.Start(ctx))

	first := receive(t, w)
	assert.Equal(t, capture.SourceChat, first.Item.Source())
	assert.Equal(t, "need to update the roadmap", first.Item.Text())

	writeFile(t, dir, "ignored.md", "not a capture")
	writeFile(t, dir, "later.toml", `title = "Buy milk"`)

	second := receive(t, w)
	entry, ok := second.Item.Entry()
	require.True(t, ok)
	assert.Equal(t, "Buy milk", entry.Title)

	assert.FileExists(t, filepath.Join(dir, ProcessedDir, "chat-standup.txt"))
	assert.FileExists(t, filepath.Join(dir, ProcessedDir, "later.toml"))
	assert.NoFileExists(t, filepath.Join(dir, "later.toml"))
	assert.FileExists(t, filepath.Join(dir, "ignored.md"))
	logger.AssertLogged(t, zapcore.InfoLevel, "file captured")
}

func TestWatcher_SkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	logger := logging.NewTestLogger()
	w, err := NewWatcher(dir, logger.Logger, WithSettle(10*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, w.Start(ctx))

	writeFile(t, dir, "broken.toml", `priority = 3`)
	writeFile(t, dir, "ok.txt", "hello")

	c := receive(t, w)
	assert.Equal(t, "hello", c.Item.Text())
	assert.FileExists(t, filepath.Join(dir, "broken.toml"), "invalid files stay in place")
	assert.Eventually(t, func() bool {
		return logger.FilterMessage("skipping drop folder file").Len() > 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil)
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}
