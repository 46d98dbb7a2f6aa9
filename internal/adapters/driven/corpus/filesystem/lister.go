// Package filesystem provides the release-note corpus backed by a
// local directory: a lister that enumerates indexable files and a
// watcher that reports changes.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/relnote-labs/prsearch/internal/core/domain"
	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
)

// indexableExtensions are the file types the corpus recognises.
var indexableExtensions = map[string]bool{
	".pdf": true,
	".txt": true,
}

// Ensure Lister implements the interface.
var _ driven.CorpusLister = (*Lister)(nil)

// Lister enumerates indexable files under a corpus root.
type Lister struct{}

// NewLister creates a filesystem corpus lister.
func NewLister() *Lister {
	return &Lister{}
}

// List returns indexable files directly under root, sorted by
// filename. Subdirectories and hidden files are skipped.
func (l *Lister) List(ctx context.Context, root string) ([]driven.CorpusFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorpusUnavailable, root, err)
	}

	var files []driven.CorpusFile //nolint:prealloc // indexable count unknown
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !indexableExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}
		files = append(files, driven.CorpusFile{
			Path:     filepath.Join(root, entry.Name()),
			Filename: entry.Name(),
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })
	return files, nil
}
