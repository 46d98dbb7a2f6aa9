package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relnote-labs/prsearch/internal/core/domain"
)

// TestLister_List tests that only indexable files are returned,
// sorted by filename.
func TestLister_List(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"b_notes.pdf", "a_notes.txt", "readme.md", ".hidden.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(root, "archive"), 0o755))

	files, err := NewLister().List(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a_notes.txt", files[0].Filename)
	assert.Equal(t, "b_notes.pdf", files[1].Filename)
	assert.Equal(t, filepath.Join(root, "b_notes.pdf"), files[1].Path)
	assert.Equal(t, int64(1), files[0].Size)
	assert.False(t, files[0].ModTime.IsZero())
}

// TestLister_MissingRoot tests that an unreadable root maps to
// ErrCorpusUnavailable.
func TestLister_MissingRoot(t *testing.T) {
	_, err := NewLister().List(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.True(t, errors.Is(err, domain.ErrCorpusUnavailable))
}

// TestWatcher_EmitsDebouncedEvent tests that a burst of writes yields
// a single event.
func TestWatcher_EmitsDebouncedEvent(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher()
	w.debounce = 50 * time.Millisecond // keep the test fast

	events, err := w.Watch(ctx, root)
	require.NoError(t, err)

	path := filepath.Join(root, "notes_21.4.0.txt")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("two"), 0o644))

	ev := <-events
	assert.Equal(t, path, ev.Path)

	cancel()
	_, open := <-events
	assert.False(t, open)
}

// TestWatcher_IgnoresOtherFiles tests that non-indexable files never
// trigger an event.
func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	write := func(name string) fsnotify.Event {
		return fsnotify.Event{Name: name, Op: fsnotify.Write}
	}
	assert.False(t, relevantEvent(write("notes.md")))
	assert.False(t, relevantEvent(write(".tmp.pdf")))
	assert.False(t, relevantEvent(fsnotify.Event{Name: "notes.pdf", Op: fsnotify.Chmod}))
	assert.True(t, relevantEvent(write("notes.PDF")))
}
