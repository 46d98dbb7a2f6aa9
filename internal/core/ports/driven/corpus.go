package driven

import (
	"context"
	"time"
)

// CorpusFile describes one candidate file in the corpus directory.
type CorpusFile struct {
	// Path is the absolute location of the file.
	Path string

	// Filename is the base name, unique across the corpus.
	Filename string

	// Size is the current file size in bytes.
	Size int64

	// ModTime is the current modification time.
	ModTime time.Time
}

// CorpusLister enumerates release-note files under a corpus root.
type CorpusLister interface {
	// List returns the corpus files under root.
	// Returns domain.ErrCorpusUnavailable when root cannot be read.
	List(ctx context.Context, root string) ([]CorpusFile, error)
}

// CorpusWatcher reports filesystem changes under a corpus root.
type CorpusWatcher interface {
	// Watch emits an event whenever corpus content changes. The
	// channel closes when ctx is cancelled.
	Watch(ctx context.Context, root string) (<-chan CorpusEvent, error)
}

// CorpusEvent signals that the corpus changed and a re-index may be due.
type CorpusEvent struct {
	// Path is the file that changed.
	Path string
}
