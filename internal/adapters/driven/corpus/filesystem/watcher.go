package filesystem

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
	"github.com/relnote-labs/prsearch/internal/logger"
)

// debounceWindow coalesces the event bursts editors and copy tools
// produce into a single corpus event.
const debounceWindow = 2 * time.Second

// Ensure Watcher implements the interface.
var _ driven.CorpusWatcher = (*Watcher)(nil)

// Watcher emits corpus events when files under the root change.
type Watcher struct {
	debounce time.Duration
}

// NewWatcher creates a filesystem corpus watcher.
func NewWatcher() *Watcher {
	return &Watcher{debounce: debounceWindow}
}

// Watch starts watching root and returns the event channel. Events for
// non-indexable files are dropped. Rapid bursts collapse into one
// event carrying the last path seen. The channel closes when ctx is
// cancelled.
func (w *Watcher) Watch(ctx context.Context, root string) (<-chan driven.CorpusEvent, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fsw.Add(root); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}

	out := make(chan driven.CorpusEvent, 1)
	go w.run(ctx, fsw, out)
	return out, nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, out chan<- driven.CorpusEvent) {
	defer close(out)
	defer func() { _ = fsw.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	var pending string

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !relevantEvent(ev) {
				continue
			}
			pending = ev.Name
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Corpus watcher error: %v", err)

		case <-timer.C:
			select {
			case out <- driven.CorpusEvent{Path: pending}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// relevantEvent reports whether the event concerns an indexable file
// in a way that changes corpus content.
func relevantEvent(ev fsnotify.Event) bool {
	if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) &&
		!ev.Op.Has(fsnotify.Remove) && !ev.Op.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}
	return indexableExtensions[strings.ToLower(filepath.Ext(name))]
}
