// Package query turns raw user queries into structured retrieval
// requests: typo correction, stopword filtering, Korean-English synonym
// expansion and detection of literal PR and version-range queries.
package query

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/relnote-labs/prsearch/internal/core/domain"
	"github.com/relnote-labs/prsearch/internal/logger"
	"github.com/relnote-labs/prsearch/internal/prscan"
)

// defaultMaxExpansions caps how many synonym tokens one term may add.
const defaultMaxExpansions = 3

// Correction is one typo-correction rule. The pattern carries its own
// context guard so corrections never fire inside a longer token
// (a "P2" inside "SP2" stays put).
type Correction struct {
	Pattern *regexp.Regexp
	Replace string
}

// defaultCorrections repair the frequent misspellings of version
// markers before tokenisation.
func defaultCorrections() []Correction {
	return []Correction{
		// "P2" meant "SP2" unless already preceded by a letter.
		{regexp.MustCompile(`(?i)(^|[^a-z0-9])p(\d{1,2})\b`), "${1}SP${2}"},
		// "HG3" is a keyboard slip for "HF3".
		{regexp.MustCompile(`(?i)\bhg(\d{1,2})\b`), "HF${1}"},
	}
}

// defaultStopwords are dropped from queries in both scripts.
func defaultStopwords() []string {
	return []string{
		// English
		"a", "an", "the", "is", "are", "was", "were", "be",
		"in", "on", "at", "to", "for", "of", "with", "and", "or",
		"what", "which", "how", "does", "do", "did", "about",
		"this", "that", "there", "any", "some", "please", "me",
		// Korean
		"이", "가", "은", "는", "을", "를", "의", "에", "에서",
		"으로", "와", "과", "도", "좀", "제발",
		"주세요", "알려줘", "알려주세요", "뭐야", "무엇", "어떤",
		"있나요", "있어", "해줘", "대해", "대한",
	}
}

// defaultSynonyms map Korean query terms onto the English vocabulary
// the release notes are written in. Expansion unions these tokens in;
// the original term is always kept.
func defaultSynonyms() map[string][]string {
	return map[string][]string{
		"버그":    {"bug", "defect"},
		"수정":    {"fix", "fixed"},
		"오류":    {"error", "failure"},
		"문제":    {"problem", "issue"},
		"기능":    {"feature", "function"},
		"신규":    {"new"},
		"개선":    {"enhancement", "improved"},
		"충돌":    {"crash", "conflict"},
		"보안":    {"security", "vulnerability"},
		"성능":    {"performance"},
		"설치":    {"install", "installation"},
		"업그레이드": {"upgrade"},
		"메모리":   {"memory", "leak"},
		"버전":    {"version", "release"},
		"패치":    {"patch", "hotfix"},
	}
}

var (
	// prLiteralRe detects a literal PR lookup inside a query.
	prLiteralRe = regexp.MustCompile(`(?i)\bPR[-\s]?\d{5,6}\b`)

	// versionExprRe detects version expressions for range queries.
	versionExprRe = regexp.MustCompile(`(?i)\d+\.\d+\.\d+(?:\s*SP\s?\d+)?(?:\s*HF\s?\d+)?`)

	// quotedPhraseRe captures an exact-phrase requirement.
	quotedPhraseRe = regexp.MustCompile(`"([^"]+)"`)
)

// Normalizer transforms raw queries into structured ones.
type Normalizer struct {
	corrections   []Correction
	stopwords     map[string]bool
	synonyms      map[string][]string
	maxExpansions int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithCorrections appends extra correction rules after the defaults.
func WithCorrections(rules []Correction) Option {
	return func(n *Normalizer) {
		n.corrections = append(n.corrections, rules...)
	}
}

// WithStopwords adds extra stopwords to the default sets.
func WithStopwords(words []string) Option {
	return func(n *Normalizer) {
		for _, w := range words {
			n.stopwords[strings.ToLower(w)] = true
		}
	}
}

// WithSynonyms merges extra synonym expansions over the defaults.
func WithSynonyms(synonyms map[string][]string) Option {
	return func(n *Normalizer) {
		for term, expansions := range synonyms {
			n.synonyms[term] = expansions
		}
	}
}

// WithMaxExpansions caps synonym tokens added per term.
func WithMaxExpansions(max int) Option {
	return func(n *Normalizer) {
		if max > 0 {
			n.maxExpansions = max
		}
	}
}

// NewNormalizer creates a Normalizer with the built-in correction,
// stopword and synonym tables, adjusted by the given options.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		corrections:   defaultCorrections(),
		synonyms:      defaultSynonyms(),
		stopwords:     make(map[string]bool),
		maxExpansions: defaultMaxExpansions,
	}
	for _, w := range defaultStopwords() {
		n.stopwords[w] = true
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize produces the structured form of a raw query.
func (n *Normalizer) Normalize(raw string) domain.StructuredQuery {
	q := domain.StructuredQuery{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return q
	}

	// A literal PR identifier short-circuits everything else.
	if m := prLiteralRe.FindString(trimmed); m != "" {
		if pr, err := prscan.Normalize(m); err == nil {
			q.PRNumber = pr
			logger.Debug("Query is a literal PR lookup: %s", pr)
			return q
		}
	}
	if pr, err := prscan.Normalize(trimmed); err == nil {
		q.PRNumber = pr
		logger.Debug("Query is a bare PR number: %s", pr)
		return q
	}

	if m := quotedPhraseRe.FindStringSubmatch(trimmed); m != nil {
		q.Phrase = strings.TrimSpace(m[1])
	}

	corrected := n.applyCorrections(trimmed)
	if corrected != trimmed {
		logger.Debug("Typo correction: %q -> %q", trimmed, corrected)
	}

	// Two version expressions bound a range query.
	if versions := versionExprRe.FindAllString(corrected, -1); len(versions) >= 2 {
		from, errFrom := domain.ParseVersion(versions[0])
		to, errTo := domain.ParseVersion(versions[len(versions)-1])
		if errFrom == nil && errTo == nil {
			if to.Less(from) {
				from, to = to, from
			}
			q.FromVersion = from
			q.ToVersion = to
			// The bounds are structural, not search terms.
			corrected = versionExprRe.ReplaceAllString(corrected, " ")
			logger.Debug("Version range query: %s -> %s", from, to)
		}
	}

	q.BaseTerms = n.filter(tokenize(corrected))
	q.Terms = n.expand(q.BaseTerms)
	return q
}

// applyCorrections runs every correction rule over the query text.
func (n *Normalizer) applyCorrections(s string) string {
	for _, c := range n.corrections {
		s = c.Pattern.ReplaceAllString(s, c.Replace)
	}
	return s
}

// filter drops stopwords.
func (n *Normalizer) filter(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if n.stopwords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return kept
}

// expand unions synonym tokens into the term list. Originals always
// survive and duplicates are dropped.
func (n *Normalizer) expand(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))

	add := func(tok string) {
		if tok == "" || seen[tok] {
			return
		}
		seen[tok] = true
		out = append(out, tok)
	}

	for _, tok := range tokens {
		add(tok)
		expansions, ok := n.synonyms[tok]
		if !ok {
			continue
		}
		added := 0
		for _, syn := range expansions {
			if added >= n.maxExpansions {
				break
			}
			syn = strings.ToLower(syn)
			if !seen[syn] {
				added++
			}
			add(syn)
		}
	}
	return out
}

// tokenize lowercases and splits on anything that is not a letter or
// digit. Hangul counts as letters, so Korean terms survive intact.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
