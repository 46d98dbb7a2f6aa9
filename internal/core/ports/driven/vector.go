package driven

import (
	"context"

	"github.com/relnote-labs/prsearch/internal/core/domain"
)

// VectorIndex provides term-frequency similarity search over pages.
// Rebuilds construct a fresh index and swap it in atomically, so
// concurrent readers always see a complete snapshot.
type VectorIndex interface {
	// Rebuild constructs a new index over the given pages and swaps
	// it in. The previous snapshot serves reads until the swap.
	Rebuild(ctx context.Context, pages []domain.Page) error

	// Search finds the k most similar pages to the query terms.
	Search(ctx context.Context, terms []string, k int) ([]VectorHit, error)

	// Size returns the number of pages in the current snapshot.
	Size() int
}

// VectorHit is one similarity match.
type VectorHit struct {
	// FileID and PageNum identify the matched page.
	FileID  int64
	PageNum int

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
