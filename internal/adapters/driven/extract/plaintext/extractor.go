// Package plaintext extracts page text from plain-text release notes,
// treating form feeds as page breaks. It backs both .txt corpora and
// the test fixtures.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads a text file and splits it into pages on form feeds.
type Extractor struct{}

// NewExtractor creates a plain-text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns one string per page. A file without form feeds is a
// single page. Page text is trimmed but empty pages are kept so page
// numbers stay stable.
func (e *Extractor) Extract(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	raw := strings.Split(string(data), "\f")
	pages := make([]string, len(raw))
	for i, p := range raw {
		pages[i] = strings.TrimSpace(p)
	}
	return pages, nil
}
