// Package pdf extracts per-page plain text from PDF release notes.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads PDF files and returns one text string per page.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text of each page in document order. Pages
// whose content streams cannot be decoded are kept as empty strings so
// page numbering stays aligned with the source document.
func (e *Extractor) Extract(ctx context.Context, path string) ([]string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	pageCount := reader.NumPage()
	texts := make([]string, 0, pageCount)
	for i := 1; i <= pageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			texts = append(texts, "")
			continue
		}
		texts = append(texts, strings.TrimSpace(text))
	}
	return texts, nil
}
