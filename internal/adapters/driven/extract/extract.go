// Package extract routes text extraction to the adapter matching the
// file's extension.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/relnote-labs/prsearch/internal/adapters/driven/extract/pdf"
	"github.com/relnote-labs/prsearch/internal/adapters/driven/extract/plaintext"
	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
)

// Ensure Dispatcher implements the interface.
var _ driven.TextExtractor = (*Dispatcher)(nil)

// Dispatcher selects a concrete extractor by file extension.
type Dispatcher struct {
	byExt map[string]driven.TextExtractor
}

// NewDispatcher wires the default extractors for .pdf and .txt files.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		byExt: map[string]driven.TextExtractor{
			".pdf": pdf.NewExtractor(),
			".txt": plaintext.NewExtractor(),
		},
	}
}

// Extract delegates to the extractor registered for the path's
// extension.
func (d *Dispatcher) Extract(ctx context.Context, path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	extractor, ok := d.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("no extractor for %s files", ext)
	}
	return extractor.Extract(ctx, path)
}
