package driving

import (
	"context"

	"github.com/relnote-labs/prsearch/internal/core/domain"
)

// Searcher answers retrieval requests over the indexed corpus.
type Searcher interface {
	// Search runs the hybrid retrieval pipeline for a raw query.
	Search(ctx context.Context, raw string, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// LookupPR returns every document mentioning a PR, one result per
	// file, latest version first.
	LookupPR(ctx context.Context, pr string) ([]domain.SearchResult, error)

	// Delta reports the PRs introduced between two versions.
	Delta(ctx context.Context, from, to string) (*domain.DeltaReport, error)

	// Answer retrieves context for a raw query and generates a prose
	// answer from it. Fails with domain.ErrGeneratorUnavailable when
	// no generator is configured.
	Answer(ctx context.Context, raw string, opts domain.SearchOptions) (string, []domain.SearchResult, error)
}
