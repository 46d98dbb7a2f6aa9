package domain

import "time"

// FileStatus is the per-file outcome of an indexing run.
type FileStatus string

// FileStatus values.
const (
	FileIndexed   FileStatus = "indexed"
	FileFailed    FileStatus = "failed"
	FileRemoved   FileStatus = "removed"
	FileUnchanged FileStatus = "unchanged"
)

// FileOutcome records what happened to one corpus file during a run.
type FileOutcome struct {
	Filename string
	Status   FileStatus

	// Err is the failure cause when Status is FileFailed.
	Err string

	// Pages and Mentions count what was written when Status is FileIndexed.
	Pages    int
	Mentions int
}

// IndexReport summarises one indexing run. A failed file never aborts
// the run; it is recorded here and the run continues.
type IndexReport struct {
	// RunID uniquely identifies the run.
	RunID string

	// Root is the corpus directory that was scanned.
	Root string

	StartedAt  time.Time
	FinishedAt time.Time

	// Outcomes holds one entry per corpus file considered.
	Outcomes []FileOutcome

	// VectorRebuilt reports whether the vector index was rebuilt and
	// swapped after the batch.
	VectorRebuilt bool
}

// Counts tallies outcomes by status.
func (r *IndexReport) Counts() (indexed, unchanged, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case FileIndexed:
			indexed++
		case FileUnchanged:
			unchanged++
		case FileFailed:
			failed++
		}
	}
	return indexed, unchanged, failed
}

// DeltaEntry is one PR in a version-range delta report.
type DeltaEntry struct {
	PRNumber string
	Class    Classification

	// Version is the earliest version the PR appears in within the
	// queried range.
	Version Version

	// Filename is the document that version was read from.
	Filename string

	// IsNew reports that the PR does not appear in any version at or
	// below the range base.
	IsNew bool
}

// DeltaReport lists the PRs introduced between two versions.
type DeltaReport struct {
	From Version
	To   Version

	Entries []DeltaEntry

	// ByClass counts entries per classification.
	ByClass map[Classification]int

	// ByVersion counts entries per version tag (canonical string).
	ByVersion map[string]int
}
