package driven

import "context"

// TextExtractor pulls page text out of a release-note file.
// Pages are returned in order; index 0 is page 1.
type TextExtractor interface {
	// Extract reads the file at path and returns its pages.
	Extract(ctx context.Context, path string) ([]string, error)
}
