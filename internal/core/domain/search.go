package domain

// StructuredQuery is the normalised form of a raw user query after typo
// correction, stopword removal and synonym expansion.
type StructuredQuery struct {
	// Raw is the query text as the user typed it.
	Raw string

	// Terms are the retained tokens, corrections applied and synonym
	// expansions unioned in. Original tokens always survive expansion.
	Terms []string

	// BaseTerms are the retained tokens before synonym expansion.
	// Phrase scoring works over these so expansions never dilute it.
	BaseTerms []string

	// Phrase is the exact phrase requirement when the user quoted
	// part of the query, empty otherwise.
	Phrase string

	// PRNumber is set when the query is a literal PR lookup
	// ("PR-123456"); retrieval short-circuits to a direct lookup.
	PRNumber string

	// FromVersion and ToVersion bound a version-range query.
	// Both are zero unless two version expressions were detected.
	FromVersion Version
	ToVersion   Version
}

// IsPRLookup reports whether the query names a single PR literally.
func (q StructuredQuery) IsPRLookup() bool {
	return q.PRNumber != ""
}

// IsVersionRange reports whether the query bounds a version range.
func (q StructuredQuery) IsVersionRange() bool {
	return !q.FromVersion.IsZero() && !q.ToVersion.IsZero()
}

// SearchOptions configures a retrieval request.
type SearchOptions struct {
	// Limit is the maximum number of results (default 20).
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// SearchResult is one ranked hit. Results are unique per
// (filename, page, PR) and ordered by score, then version descending,
// then filename.
type SearchResult struct {
	// Document is the matched release note.
	Document Document

	// PageNum is the matched page, 1-based.
	PageNum int

	// PRNumber is set when the hit is anchored to a PR mention.
	PRNumber string

	// Class is the mention classification when PRNumber is set.
	Class Classification

	// Score is the fused relevance score.
	Score float64

	// LexicalScore, VectorScore and PhraseScore are the per-channel
	// contributions before weighting. A channel that produced no
	// signal for this hit reports zero.
	LexicalScore float64
	VectorScore  float64
	PhraseScore  float64

	// Snippet is page text around the best match.
	Snippet string
}
