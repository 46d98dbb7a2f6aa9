package driving

import (
	"context"

	"github.com/relnote-labs/prsearch/internal/core/domain"
)

// Indexer coordinates indexing runs over a corpus directory.
type Indexer interface {
	// Run scans the corpus and indexes new or changed files.
	// Only one run may be active at a time; overlapping calls fail
	// with domain.ErrIndexInProgress.
	Run(ctx context.Context, root string) (*domain.IndexReport, error)

	// Status returns the state of the current or most recent run.
	Status() IndexStatus
}

// IndexStatus describes an indexing run.
type IndexStatus struct {
	// Running indicates a run is currently active.
	Running bool

	// RunID identifies the current or most recent run.
	RunID string

	// Processed is the count of files handled so far.
	Processed int

	// Failed is the number of per-file failures so far.
	Failed int
}
