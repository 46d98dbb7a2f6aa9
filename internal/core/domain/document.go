package domain

import "time"

// Document represents one indexed release-note file.
// Filenames are unique across the corpus; re-indexing a file replaces
// its pages and PR mentions in a single transaction.
type Document struct {
	// ID is the store-assigned identifier.
	ID int64

	// Filename is the base name, unique across the corpus.
	Filename string

	// Path is the absolute location the file was read from.
	Path string

	// VersionRaw is the tag string pulled from the filename.
	VersionRaw string

	// Version is the parsed tag. Zero when the tag was unparsable;
	// such documents are excluded from version-range queries.
	Version Version

	// Size is the file size in bytes at index time.
	Size int64

	// ModTime is the file modification time at index time.
	// Together with Size it decides whether a file is re-extracted.
	ModTime time.Time

	// PageCount is the number of extracted pages.
	PageCount int

	// IndexedAt is when the document was last (re)indexed.
	IndexedAt time.Time
}

// Page is one extracted page of a document. Page numbers are 1-based.
type Page struct {
	FileID  int64
	PageNum int
	Text    string
}

// Classification buckets a PR mention by the section it appears under.
type Classification string

// Classification values.
const (
	ClassNewFeature Classification = "new_feature"
	ClassIssueFix   Classification = "issue_fix"
	ClassUnknown    Classification = "unknown"
)

// PRMention records one occurrence of a problem-report identifier.
// The (PRNumber, FileID, PageNum) triple is unique; later duplicates on
// the same page are dropped.
type PRMention struct {
	// PRNumber is the canonical identifier, "PR-" followed by digits.
	PRNumber string

	FileID  int64
	PageNum int

	// Class is where the mention sat: a new-features section, a
	// problem-reports section, or neither.
	Class Classification

	// Context is a snippet of page text around the mention, clamped
	// to the page bounds.
	Context string
}
