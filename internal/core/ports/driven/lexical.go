package driven

import "context"

// LexicalEngine provides full-text page retrieval.
// Backed by SQLite FTS5 with BM25 ranking.
type LexicalEngine interface {
	// SearchAll matches pages containing every term.
	SearchAll(ctx context.Context, terms []string, limit int) ([]LexicalHit, error)

	// SearchAny matches pages containing any term. Used as the
	// fallback when the conjunctive query returns too few results.
	SearchAny(ctx context.Context, terms []string, limit int) ([]LexicalHit, error)

	// SearchPhrase matches pages containing the exact phrase.
	SearchPhrase(ctx context.Context, phrase string, limit int) ([]LexicalHit, error)
}

// LexicalHit is one full-text match.
type LexicalHit struct {
	// FileID and PageNum identify the matched page.
	FileID  int64
	PageNum int

	// Score is the relevance score, higher is better.
	Score float64
}
