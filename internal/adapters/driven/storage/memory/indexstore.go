// Package memory provides in-memory store implementations used by
// tests and as a lightweight fallback.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/relnote-labs/prsearch/internal/core/domain"
	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
)

// Ensure IndexStore implements the interfaces.
var (
	_ driven.IndexStore    = (*IndexStore)(nil)
	_ driven.LexicalEngine = (*IndexStore)(nil)
)

// IndexStore is an in-memory implementation of driven.IndexStore that
// doubles as a naive LexicalEngine over substring matching.
type IndexStore struct {
	mu       sync.RWMutex
	nextID   int64
	docs     map[int64]domain.Document
	byName   map[string]int64
	pages    map[int64][]domain.Page
	mentions map[int64][]domain.PRMention
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		nextID:   1,
		docs:     make(map[int64]domain.Document),
		byName:   make(map[string]int64),
		pages:    make(map[int64][]domain.Page),
		mentions: make(map[int64][]domain.PRMention),
	}
}

// ReplaceDocument writes a document with its pages and mentions,
// replacing any previous rows for the same filename.
func (s *IndexStore) ReplaceDocument(
	_ context.Context, doc *domain.Document, pages []domain.Page, mentions []domain.PRMention,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if oldID, ok := s.byName[doc.Filename]; ok {
		delete(s.docs, oldID)
		delete(s.pages, oldID)
		delete(s.mentions, oldID)
	}

	doc.ID = s.nextID
	s.nextID++

	for i := range pages {
		pages[i].FileID = doc.ID
	}

	// Enforce the (pr, file, page) uniqueness the SQLite schema has.
	seen := make(map[string]bool, len(mentions))
	kept := make([]domain.PRMention, 0, len(mentions))
	for i := range mentions {
		mentions[i].FileID = doc.ID
		key := fmt.Sprintf("%s|%d", mentions[i].PRNumber, mentions[i].PageNum)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, mentions[i])
	}

	s.docs[doc.ID] = *doc
	s.byName[doc.Filename] = doc.ID
	s.pages[doc.ID] = append([]domain.Page(nil), pages...)
	s.mentions[doc.ID] = kept
	return nil
}

// GetDocument retrieves a document by ID.
func (s *IndexStore) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByFilename retrieves a document by filename.
func (s *IndexStore) GetDocumentByFilename(_ context.Context, filename string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.docs[id]
	return &doc, nil
}

// ListDocuments returns all indexed documents sorted by filename.
func (s *IndexStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Filename < docs[j].Filename })
	return docs, nil
}

// DeleteDocument removes a document with its pages and mentions.
func (s *IndexStore) DeleteDocument(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil
	}
	delete(s.byName, doc.Filename)
	delete(s.docs, id)
	delete(s.pages, id)
	delete(s.mentions, id)
	return nil
}

// GetPage retrieves one page of a document.
func (s *IndexStore) GetPage(_ context.Context, fileID int64, pageNum int) (*domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.pages[fileID] {
		if p.PageNum == pageNum {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

// ListPages returns every indexed page.
func (s *IndexStore) ListPages(_ context.Context) ([]domain.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []domain.Page
	for _, ps := range s.pages {
		all = append(all, ps...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].FileID != all[j].FileID {
			return all[i].FileID < all[j].FileID
		}
		return all[i].PageNum < all[j].PageNum
	})
	return all, nil
}

// MentionsForPR returns all mentions of one PR.
func (s *IndexStore) MentionsForPR(_ context.Context, prNumber string) ([]domain.PRMention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PRMention
	for _, ms := range s.mentions {
		for _, m := range ms {
			if m.PRNumber == prNumber {
				out = append(out, m)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FileID != out[j].FileID {
			return out[i].FileID < out[j].FileID
		}
		return out[i].PageNum < out[j].PageNum
	})
	return out, nil
}

// MentionsOnPage returns the mentions recorded on one page.
func (s *IndexStore) MentionsOnPage(_ context.Context, fileID int64, pageNum int) ([]domain.PRMention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PRMention
	for _, m := range s.mentions[fileID] {
		if m.PageNum == pageNum {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListMentions returns every recorded mention.
func (s *IndexStore) ListMentions(_ context.Context) ([]domain.PRMention, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PRMention
	for _, ms := range s.mentions {
		out = append(out, ms...)
	}
	return out, nil
}

// Close releases nothing for the in-memory store.
func (s *IndexStore) Close() error {
	return nil
}

// SearchAll matches pages containing every term (substring match).
func (s *IndexStore) SearchAll(_ context.Context, terms []string, limit int) ([]driven.LexicalHit, error) {
	return s.search(terms, limit, true), nil
}

// SearchAny matches pages containing any term (substring match).
func (s *IndexStore) SearchAny(_ context.Context, terms []string, limit int) ([]driven.LexicalHit, error) {
	return s.search(terms, limit, false), nil
}

// SearchPhrase matches pages containing the exact phrase.
func (s *IndexStore) SearchPhrase(_ context.Context, phrase string, limit int) ([]driven.LexicalHit, error) {
	return s.search([]string{phrase}, limit, true), nil
}

func (s *IndexStore) search(terms []string, limit int, all bool) []driven.LexicalHit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(terms) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 20
	}

	var hits []driven.LexicalHit
	for _, ps := range s.pages {
		for _, p := range ps {
			textLower := strings.ToLower(p.Text)
			matched := 0
			for _, t := range terms {
				if strings.Contains(textLower, strings.ToLower(t)) {
					matched++
				}
			}
			if matched == 0 || (all && matched < len(terms)) {
				continue
			}
			hits = append(hits, driven.LexicalHit{
				FileID:  p.FileID,
				PageNum: p.PageNum,
				Score:   float64(matched),
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
