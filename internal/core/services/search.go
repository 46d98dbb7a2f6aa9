package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/relnote-labs/prsearch/internal/core/domain"
	"github.com/relnote-labs/prsearch/internal/core/ports/driven"
	"github.com/relnote-labs/prsearch/internal/core/ports/driving"
	"github.com/relnote-labs/prsearch/internal/logger"
	"github.com/relnote-labs/prsearch/internal/prscan"
	"github.com/relnote-labs/prsearch/internal/query"
)

// Ensure SearchService implements the interface.
var _ driving.Searcher = (*SearchService)(nil)

// Phrase-match score tiers. The ladder rewards tighter matches: the
// exact phrase in the filename beats the exact phrase in the body,
// which beats all words present, which beats partial coverage.
const (
	phraseInTitle    = 1.0
	phraseInBody     = 0.8
	allWordsPresent  = 0.6
	strongCoverage   = 0.4 // at least 70% of words
	halfCoverage     = 0.25
	scatteredPartial = 0.1
)

// SearchConfig tunes the hybrid scorer.
type SearchConfig struct {
	// LexicalWeight, VectorWeight and PhraseWeight fuse the three
	// channels. A channel missing for a candidate contributes zero.
	LexicalWeight float64
	VectorWeight  float64
	PhraseWeight  float64

	// MinLexicalResults is the AND-query result count below which the
	// engine retries with an OR query.
	MinLexicalResults int

	// Timeout bounds one retrieval request. Zero disables it.
	Timeout time.Duration
}

// DefaultSearchConfig returns the standard fusion weights.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		LexicalWeight:     0.4,
		VectorWeight:      0.4,
		PhraseWeight:      0.2,
		MinLexicalResults: 3,
		Timeout:           10 * time.Second,
	}
}

// scoredPage holds per-channel scores for a candidate page before
// hydration.
type scoredPage struct {
	fileID  int64
	pageNum int
	lexical float64
	vector  float64
	phrase  float64
}

func (p *scoredPage) fused(cfg SearchConfig) float64 {
	return cfg.LexicalWeight*p.lexical + cfg.VectorWeight*p.vector + cfg.PhraseWeight*p.phrase
}

// SearchService runs the hybrid retrieval pipeline: query
// normalisation, lexical and vector candidate generation, phrase
// scoring, weighted fusion and ordering.
type SearchService struct {
	store      driven.IndexStore
	lexical    driven.LexicalEngine
	vector     driven.VectorIndex
	generator  driven.AnswerGenerator
	normalizer *query.Normalizer
	cfg        SearchConfig
}

// NewSearchService creates a search service. The vector index and
// generator are optional (can be nil); their channels simply score zero.
func NewSearchService(
	store driven.IndexStore,
	lexical driven.LexicalEngine,
	vector driven.VectorIndex,
	generator driven.AnswerGenerator,
	normalizer *query.Normalizer,
	cfg SearchConfig,
) *SearchService {
	if cfg.LexicalWeight == 0 && cfg.VectorWeight == 0 && cfg.PhraseWeight == 0 {
		cfg = DefaultSearchConfig()
	}
	if cfg.MinLexicalResults <= 0 {
		cfg.MinLexicalResults = DefaultSearchConfig().MinLexicalResults
	}
	return &SearchService{
		store:      store,
		lexical:    lexical,
		vector:     vector,
		generator:  generator,
		normalizer: normalizer,
		cfg:        cfg,
	}
}

// Search runs the hybrid retrieval pipeline for a raw query.
func (s *SearchService) Search(
	ctx context.Context, raw string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Query: %q", raw)

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	q := s.normalizer.Normalize(raw)

	// A literal PR query bypasses scoring entirely.
	if q.IsPRLookup() {
		return s.LookupPR(ctx, q.PRNumber)
	}

	if len(q.Terms) == 0 && q.Phrase == "" {
		logger.Debug("Empty query after normalisation, returning no results")
		return []domain.SearchResult{}, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	// Request more candidates internally to survive dedup and range
	// filtering.
	internalLimit := limit * 3
	logger.Debug("Terms: %v, internal limit: %d", q.Terms, internalLimit)

	candidates, err := s.gatherCandidates(ctx, q, internalLimit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	logger.Debug("Candidates: %d pages", len(candidates))

	results, err := s.hydrate(ctx, q, candidates)
	if err != nil {
		return nil, fmt.Errorf("hydrate results: %w", err)
	}

	if q.IsVersionRange() {
		results = filterVersionRange(results, q.FromVersion, q.ToVersion)
		logger.Debug("After version-range filter: %d results", len(results))
	}

	orderResults(results)
	results = applyPagination(results, opts.Offset, limit)
	logger.Info("Final results: %d", len(results))

	return results, nil
}

// gatherCandidates runs the lexical and vector channels in parallel and
// fuses their scores with the phrase channel.
func (s *SearchService) gatherCandidates(
	ctx context.Context, q domain.StructuredQuery, limit int,
) (map[[2]int64]*scoredPage, error) {
	var lexHits []driven.LexicalHit
	var vecHits []driven.VectorHit
	var lexErr, vecErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		lexHits, lexErr = s.lexicalSearch(ctx, q.Terms, limit)
		if lexErr != nil || q.Phrase == "" {
			return
		}
		// A quoted query pulls exact-phrase matches into the
		// candidate set even when the token query missed them.
		phraseHits, err := s.lexical.SearchPhrase(ctx, q.Phrase, limit)
		if err != nil {
			logger.Warn("Phrase query failed: %v", err)
			return
		}
		lexHits = append(lexHits, phraseHits...)
	}()

	go func() {
		defer wg.Done()
		if s.vector == nil {
			return
		}
		vecHits, vecErr = s.vector.Search(ctx, q.Terms, limit)
	}()

	wg.Wait()

	// Degrade gracefully when one channel fails; fail only when both do.
	if lexErr != nil && vecErr != nil {
		return nil, fmt.Errorf("lexical=%w, vector=%w", lexErr, vecErr)
	}
	if lexErr != nil {
		logger.Warn("Lexical channel failed, vector results only: %v", lexErr)
	}
	if vecErr != nil {
		logger.Warn("Vector channel failed, lexical results only: %v", vecErr)
	}

	candidates := make(map[[2]int64]*scoredPage)
	get := func(fileID int64, pageNum int) *scoredPage {
		key := [2]int64{fileID, int64(pageNum)}
		sp, ok := candidates[key]
		if !ok {
			sp = &scoredPage{fileID: fileID, pageNum: pageNum}
			candidates[key] = sp
		}
		return sp
	}

	// BM25 scores are normalised into [0,1] within the candidate set.
	maxLex := 0.0
	for _, h := range lexHits {
		if h.Score > maxLex {
			maxLex = h.Score
		}
	}
	for _, h := range lexHits {
		sp := get(h.FileID, h.PageNum)
		if maxLex == 0 {
			continue
		}
		// A page can appear twice when the phrase query re-matches
		// it; the stronger score stands.
		if s := h.Score / maxLex; s > sp.lexical {
			sp.lexical = s
		}
	}

	for _, h := range vecHits {
		sp := get(h.FileID, h.PageNum)
		sp.vector = h.Similarity
	}

	// Phrase channel scores every candidate against the page text.
	phrase := q.Phrase
	if phrase == "" {
		phrase = strings.Join(q.BaseTerms, " ")
	}
	for _, sp := range candidates {
		page, err := s.store.GetPage(ctx, sp.fileID, sp.pageNum)
		if err != nil {
			continue
		}
		doc, err := s.store.GetDocument(ctx, sp.fileID)
		title := ""
		if err == nil {
			title = doc.Filename
		}
		sp.phrase = phraseScore(phrase, q.BaseTerms, title, page.Text)
	}

	return candidates, nil
}

// lexicalSearch runs the conjunctive query first, falling back to a
// disjunctive one when it returns too few results.
func (s *SearchService) lexicalSearch(
	ctx context.Context, terms []string, limit int,
) ([]driven.LexicalHit, error) {
	if s.lexical == nil {
		return nil, domain.ErrLexicalUnavailable
	}
	if len(terms) == 0 {
		return nil, nil
	}

	hits, err := s.lexical.SearchAll(ctx, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical AND: %w", err)
	}
	if len(hits) >= s.cfg.MinLexicalResults || len(terms) < 2 {
		return hits, nil
	}

	logger.Debug("AND query returned %d hits (< %d), retrying with OR",
		len(hits), s.cfg.MinLexicalResults)
	orHits, err := s.lexical.SearchAny(ctx, terms, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical OR: %w", err)
	}
	if len(orHits) > len(hits) {
		return orHits, nil
	}
	return hits, nil
}

// phraseScore walks the match ladder for one page.
func phraseScore(phrase string, words []string, title, body string) float64 {
	if phrase == "" || len(words) == 0 {
		return 0
	}
	phraseLower := strings.ToLower(phrase)
	titleLower := strings.ToLower(title)
	bodyLower := strings.ToLower(body)

	if strings.Contains(titleLower, phraseLower) {
		return phraseInTitle
	}
	if strings.Contains(bodyLower, phraseLower) {
		return phraseInBody
	}

	matched := 0
	for _, w := range words {
		if strings.Contains(bodyLower, strings.ToLower(w)) {
			matched++
		}
	}
	coverage := float64(matched) / float64(len(words))
	switch {
	case matched == len(words):
		return allWordsPresent
	case coverage >= 0.7:
		return strongCoverage
	case coverage >= 0.5:
		return halfCoverage
	case matched > 0:
		return scatteredPartial
	default:
		return 0
	}
}

// hydrate converts scored pages into full results. Results are unique
// per (file, page, PR); a page mention matching the query terms anchors
// the result to that PR.
func (s *SearchService) hydrate(
	ctx context.Context, q domain.StructuredQuery, candidates map[[2]int64]*scoredPage,
) ([]domain.SearchResult, error) {
	results := make([]domain.SearchResult, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))

	for _, sp := range candidates {
		doc, err := s.store.GetDocument(ctx, sp.fileID)
		if err != nil {
			// Document deleted since the channel ran, skip it.
			continue
		}
		page, err := s.store.GetPage(ctx, sp.fileID, sp.pageNum)
		if err != nil {
			continue
		}

		res := domain.SearchResult{
			Document:     *doc,
			PageNum:      sp.pageNum,
			Score:        sp.fused(s.cfg),
			LexicalScore: sp.lexical,
			VectorScore:  sp.vector,
			PhraseScore:  sp.phrase,
			Snippet:      snippetFor(page.Text, q.BaseTerms),
		}

		if mention := s.relevantMention(ctx, sp, q.BaseTerms); mention != nil {
			res.PRNumber = mention.PRNumber
			res.Class = mention.Class
			if res.Snippet == "" {
				res.Snippet = mention.Context
			}
		}

		key := fmt.Sprintf("%s|%d|%s", doc.Filename, sp.pageNum, res.PRNumber)
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, res)
	}

	return results, nil
}

// relevantMention picks the page mention whose context matches the
// query, if any.
func (s *SearchService) relevantMention(
	ctx context.Context, sp *scoredPage, words []string,
) *domain.PRMention {
	mentions, err := s.store.MentionsOnPage(ctx, sp.fileID, sp.pageNum)
	if err != nil || len(mentions) == 0 {
		return nil
	}
	for i := range mentions {
		contextLower := strings.ToLower(mentions[i].Context)
		for _, w := range words {
			if strings.Contains(contextLower, strings.ToLower(w)) {
				return &mentions[i]
			}
		}
	}
	return &mentions[0]
}

// LookupPR returns every document mentioning a PR, one result per file
// (the highest page, where the detail section lives), latest version
// first.
func (s *SearchService) LookupPR(ctx context.Context, pr string) ([]domain.SearchResult, error) {
	logger.Section("PR Lookup")

	canonical, err := prscan.Normalize(pr)
	if err != nil {
		return nil, err
	}
	logger.Debug("PR: %s", canonical)

	mentions, err := s.store.MentionsForPR(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("mentions for %s: %w", canonical, err)
	}

	// One mention per file: keep the highest page.
	byFile := make(map[int64]domain.PRMention)
	for _, m := range mentions {
		if prev, ok := byFile[m.FileID]; !ok || m.PageNum > prev.PageNum {
			byFile[m.FileID] = m
		}
	}

	results := make([]domain.SearchResult, 0, len(byFile))
	for fileID, m := range byFile {
		doc, err := s.store.GetDocument(ctx, fileID)
		if err != nil {
			continue
		}
		results = append(results, domain.SearchResult{
			Document: *doc,
			PageNum:  m.PageNum,
			PRNumber: m.PRNumber,
			Class:    m.Class,
			Score:    1,
			Snippet:  m.Context,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		c := results[i].Document.Version.Compare(results[j].Document.Version)
		if c != 0 {
			return c > 0
		}
		return results[i].Document.Filename < results[j].Document.Filename
	})

	logger.Info("PR %s found in %d documents", canonical, len(results))
	return results, nil
}

// Delta reports the PRs introduced in versions v with from < v <= to.
func (s *SearchService) Delta(ctx context.Context, from, to string) (*domain.DeltaReport, error) {
	logger.Section("Version Delta")

	fromV, err := domain.ParseVersion(from)
	if err != nil {
		return nil, err
	}
	toV, err := domain.ParseVersion(to)
	if err != nil {
		return nil, err
	}
	if toV.Less(fromV) {
		fromV, toV = toV, fromV
	}
	logger.Debug("Range: %s -> %s", fromV, toV)

	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docByID := make(map[int64]domain.Document, len(docs))
	for _, d := range docs {
		docByID[d.ID] = d
	}

	mentions, err := s.store.ListMentions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mentions: %w", err)
	}

	// For each PR, track the earliest version inside the range and
	// whether it already existed at or below the base.
	type first struct {
		version  domain.Version
		filename string
		class    domain.Classification
	}
	inRange := make(map[string]first)
	baseSet := make(map[string]bool)

	for _, m := range mentions {
		doc, ok := docByID[m.FileID]
		if !ok || doc.Version.IsZero() {
			// Documents with unparsable tags are excluded from
			// version-range queries.
			continue
		}
		v := doc.Version

		if v.Compare(fromV) <= 0 {
			baseSet[m.PRNumber] = true
			continue
		}
		if toV.Less(v) {
			continue
		}

		cur, ok := inRange[m.PRNumber]
		if !ok || v.Less(cur.version) {
			inRange[m.PRNumber] = first{version: v, filename: doc.Filename, class: m.Class}
		}
	}

	report := &domain.DeltaReport{
		From:      fromV,
		To:        toV,
		ByClass:   make(map[domain.Classification]int),
		ByVersion: make(map[string]int),
	}
	for pr, f := range inRange {
		entry := domain.DeltaEntry{
			PRNumber: pr,
			Class:    f.class,
			Version:  f.version,
			Filename: f.filename,
			IsNew:    !baseSet[pr],
		}
		report.Entries = append(report.Entries, entry)
		report.ByClass[f.class]++
		report.ByVersion[f.version.String()]++
	}

	sort.Slice(report.Entries, func(i, j int) bool {
		c := report.Entries[i].Version.Compare(report.Entries[j].Version)
		if c != 0 {
			return c < 0
		}
		return report.Entries[i].PRNumber < report.Entries[j].PRNumber
	})

	logger.Info("Delta: %d PRs between %s and %s", len(report.Entries), fromV, toV)
	return report, nil
}

// Answer retrieves context and generates a prose answer from it.
func (s *SearchService) Answer(
	ctx context.Context, raw string, opts domain.SearchOptions,
) (string, []domain.SearchResult, error) {
	if s.generator == nil {
		return "", nil, domain.ErrGeneratorUnavailable
	}

	results, err := s.Search(ctx, raw, opts)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return "No matching release notes were found.", results, nil
	}

	var b strings.Builder
	b.WriteString("Answer the question using only the release-note excerpts below.\n")
	b.WriteString("Cite PR numbers and versions where available.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\nExcerpts:\n", raw)
	for i, r := range results {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "[%d] %s (page %d", i+1, r.Document.Filename, r.PageNum)
		if r.PRNumber != "" {
			fmt.Fprintf(&b, ", %s", r.PRNumber)
		}
		fmt.Fprintf(&b, ")\n%s\n\n", r.Snippet)
	}
	b.WriteString("Answer:")

	answer, err := s.generator.Generate(ctx, b.String(), driven.GenerateOptions{
		MaxTokens:   512,
		Temperature: 0.2,
	})
	if err != nil {
		return "", results, fmt.Errorf("generate answer: %w", err)
	}

	return strings.TrimSpace(answer), results, nil
}

// filterVersionRange keeps results whose document version lies in
// (from, to]. Documents with unparsable tags are dropped.
func filterVersionRange(results []domain.SearchResult, from, to domain.Version) []domain.SearchResult {
	kept := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		v := r.Document.Version
		if v.IsZero() {
			continue
		}
		if from.Less(v) && v.Compare(to) <= 0 {
			kept = append(kept, r)
		}
	}
	return kept
}

// orderResults sorts by score descending, then version descending, then
// filename ascending.
func orderResults(results []domain.SearchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		c := results[i].Document.Version.Compare(results[j].Document.Version)
		if c != 0 {
			return c > 0
		}
		return results[i].Document.Filename < results[j].Document.Filename
	})
}

// applyPagination applies offset and limit to results.
func applyPagination(results []domain.SearchResult, offset, limit int) []domain.SearchResult {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(results) {
		return []domain.SearchResult{}
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end]
}

// snippetFor extracts the first sentence containing a query term.
func snippetFor(text string, words []string) string {
	if len(words) == 0 {
		return ""
	}
	for _, sentence := range splitSentences(text) {
		sentenceLower := strings.ToLower(sentence)
		for _, w := range words {
			if strings.Contains(sentenceLower, strings.ToLower(w)) {
				if len(sentence) > 200 {
					// Nudge back onto a rune boundary so
					// multi-byte text is never split.
					cut := 200
					for cut > 0 && !utf8.RuneStart(sentence[cut]) {
						cut--
					}
					return sentence[:cut] + "..."
				}
				return sentence
			}
		}
	}
	return ""
}

// splitSentences splits page text on common terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
