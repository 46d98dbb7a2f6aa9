// Package tfidf provides an in-process TF-IDF vector index over
// document pages. Rebuilds construct a complete snapshot off to the
// side and swap it in atomically, so searches always read a consistent
// index and are never blocked by the indexer.
package tfidf

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/relnote-labs/prsearch/internal/core/domain"
	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
	"github.com/relnote-labs/prsearch/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// pageVector is one page's sparse weight vector.
type pageVector struct {
	fileID  int64
	pageNum int
	weights map[string]float64
	norm    float64
}

// snapshot is one immutable generation of the index.
type snapshot struct {
	vectors []pageVector
	df      map[string]int
	docs    int
}

// Index is a sparse TF-IDF cosine similarity index.
type Index struct {
	current atomic.Pointer[snapshot]
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	idx := &Index{}
	idx.current.Store(&snapshot{df: map[string]int{}})
	return idx
}

// Rebuild constructs a new snapshot over the given pages and swaps it
// in. Readers keep using the previous snapshot until the swap.
func (idx *Index) Rebuild(ctx context.Context, pages []domain.Page) error {
	next := &snapshot{
		vectors: make([]pageVector, 0, len(pages)),
		df:      make(map[string]int),
		docs:    len(pages),
	}

	// First pass: term counts and document frequencies.
	counts := make([]map[string]int, len(pages))
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		tf := termCounts(page.Text)
		counts[i] = tf
		for term := range tf {
			next.df[term]++
		}
	}

	// Second pass: weight vectors with smoothed IDF.
	for i, page := range pages {
		weights := make(map[string]float64, len(counts[i]))
		var norm float64
		for term, count := range counts[i] {
			w := (1 + math.Log(float64(count))) * idf(next.docs, next.df[term])
			weights[term] = w
			norm += w * w
		}
		next.vectors = append(next.vectors, pageVector{
			fileID:  page.FileID,
			pageNum: page.PageNum,
			weights: weights,
			norm:    math.Sqrt(norm),
		})
	}

	idx.current.Store(next)
	logger.Debug("TF-IDF snapshot swapped: %d pages, %d terms", next.docs, len(next.df))
	return nil
}

// Search finds the k most similar pages to the query terms.
func (idx *Index) Search(ctx context.Context, terms []string, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := idx.current.Load()
	if snap.docs == 0 || len(terms) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 20
	}

	// Query vector over the snapshot's vocabulary.
	qCounts := make(map[string]int, len(terms))
	for _, t := range terms {
		for _, tok := range tokenize(t) {
			qCounts[tok]++
		}
	}
	qWeights := make(map[string]float64, len(qCounts))
	var qNorm float64
	for term, count := range qCounts {
		df, ok := snap.df[term]
		if !ok {
			continue
		}
		w := (1 + math.Log(float64(count))) * idf(snap.docs, df)
		qWeights[term] = w
		qNorm += w * w
	}
	if len(qWeights) == 0 {
		return nil, nil
	}
	qNorm = math.Sqrt(qNorm)

	hits := make([]driven.VectorHit, 0, len(snap.vectors))
	for i := range snap.vectors {
		pv := &snap.vectors[i]
		if pv.norm == 0 {
			continue
		}
		var dot float64
		for term, qw := range qWeights {
			if dw, ok := pv.weights[term]; ok {
				dot += qw * dw
			}
		}
		if dot == 0 {
			continue
		}
		hits = append(hits, driven.VectorHit{
			FileID:     pv.fileID,
			PageNum:    pv.pageNum,
			Similarity: dot / (qNorm * pv.norm),
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Similarity > hits[j].Similarity })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Size returns the number of pages in the current snapshot.
func (idx *Index) Size() int {
	return idx.current.Load().docs
}

// idf is the smoothed inverse document frequency.
func idf(docs, df int) float64 {
	return math.Log(float64(docs+1)/float64(df+1)) + 1
}

// termCounts tokenises page text and counts term occurrences.
func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range tokenize(text) {
		counts[tok]++
	}
	return counts
}

// tokenize lowercases and splits on anything that is not a letter or
// digit, matching the FTS tokeniser closely enough for fusion.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
