package query

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalize_EmptyQuery tests that whitespace-only input yields an
// empty structured query
func TestNormalize_EmptyQuery(t *testing.T) {
	n := NewNormalizer()
	q := n.Normalize("   ")

	assert.Empty(t, q.Terms)
	assert.False(t, q.IsPRLookup())
	assert.False(t, q.IsVersionRange())
}

// TestNormalize_PRLiteral tests the literal PR short-circuit
func TestNormalize_PRLiteral(t *testing.T) {
	n := NewNormalizer()

	for _, raw := range []string{"PR-123456", "pr 123456", "what about PR-123456?"} {
		q := n.Normalize(raw)
		require.True(t, q.IsPRLookup(), raw)
		assert.Equal(t, "PR-123456", q.PRNumber)
		assert.Empty(t, q.Terms)
	}
}

// TestNormalize_BarePRNumber tests that a digits-only query is treated
// as a PR lookup
func TestNormalize_BarePRNumber(t *testing.T) {
	n := NewNormalizer()
	q := n.Normalize("123456")

	require.True(t, q.IsPRLookup())
	assert.Equal(t, "PR-123456", q.PRNumber)
}

// TestNormalize_TypoCorrection tests the P->SP and HG->HF rules
func TestNormalize_TypoCorrection(t *testing.T) {
	n := NewNormalizer()

	q := n.Normalize("fixes in p2")
	assert.Contains(t, q.Terms, "sp2")

	q = n.Normalize("hg3 regressions")
	assert.Contains(t, q.Terms, "hf3")
}

// TestNormalize_TypoCorrectionGuard tests that corrections never fire
// inside an already-correct marker
func TestNormalize_TypoCorrectionGuard(t *testing.T) {
	n := NewNormalizer()
	q := n.Normalize("changes in SP2")

	assert.Contains(t, q.Terms, "sp2")
	assert.NotContains(t, q.Terms, "spsp2")
	assert.NotContains(t, q.Terms, "ssp2")
}

// TestNormalize_Stopwords tests per-language stopword filtering
func TestNormalize_Stopwords(t *testing.T) {
	n := NewNormalizer()
	q := n.Normalize("what is the memory leak 수정 을 알려줘")

	assert.NotContains(t, q.Terms, "what")
	assert.NotContains(t, q.Terms, "the")
	assert.NotContains(t, q.Terms, "을")
	assert.NotContains(t, q.Terms, "알려줘")
	assert.Contains(t, q.Terms, "memory")
	assert.Contains(t, q.Terms, "leak")
}

// TestNormalize_SynonymExpansion tests that Korean terms union in their
// English equivalents without replacing the original
func TestNormalize_SynonymExpansion(t *testing.T) {
	n := NewNormalizer()
	q := n.Normalize("버그 수정")

	assert.Contains(t, q.Terms, "버그")
	assert.Contains(t, q.Terms, "bug")
	assert.Contains(t, q.Terms, "수정")
	assert.Contains(t, q.Terms, "fix")
}

// TestNormalize_ExpansionCap tests the per-term expansion limit
func TestNormalize_ExpansionCap(t *testing.T) {
	n := NewNormalizer(
		WithSynonyms(map[string][]string{"테스트": {"one", "two", "three", "four", "five"}}),
		WithMaxExpansions(2),
	)
	q := n.Normalize("테스트")

	assert.Equal(t, []string{"테스트", "one", "two"}, q.Terms)
}

// TestNormalize_NoDuplicateTerms tests expansion dedup
func TestNormalize_NoDuplicateTerms(t *testing.T) {
	n := NewNormalizer()
	q := n.Normalize("bug 버그")

	count := 0
	for _, term := range q.Terms {
		if term == "bug" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

// TestNormalize_VersionRange tests detection of two version expressions
func TestNormalize_VersionRange(t *testing.T) {
	n := NewNormalizer()
	q := n.Normalize("changes between 21.4.0 SP1 and 21.4.0 SP2 HF3")

	require.True(t, q.IsVersionRange())
	assert.Equal(t, "21.4.0 SP1", q.FromVersion.String())
	assert.Equal(t, "21.4.0 SP2 HF3", q.ToVersion.String())

	// The bounds must not leak into the search terms.
	assert.NotContains(t, q.Terms, "21")
	assert.Contains(t, q.Terms, "changes")
}

// TestNormalize_VersionRangeSwapped tests that an inverted range is
// reordered
func TestNormalize_VersionRangeSwapped(t *testing.T) {
	n := NewNormalizer()
	q := n.Normalize("22.0.0 까지 21.4.0 부터")

	require.True(t, q.IsVersionRange())
	assert.True(t, q.FromVersion.Less(q.ToVersion))
	assert.Equal(t, "21.4.0", q.FromVersion.String())
	assert.Equal(t, "22.0.0", q.ToVersion.String())
}

// TestNormalize_QuotedPhrase tests exact-phrase capture
func TestNormalize_QuotedPhrase(t *testing.T) {
	n := NewNormalizer()
	q := n.Normalize(`crash in "bulk export wizard"`)

	assert.Equal(t, "bulk export wizard", q.Phrase)
	assert.Contains(t, q.Terms, "crash")
}

// TestNormalize_CustomCorrections tests config-supplied rules
func TestNormalize_CustomCorrections(t *testing.T) {
	extra := []Correction{
		{Pattern: regexp.MustCompile(`(?i)\bexprt\b`), Replace: "export"},
	}
	n := NewNormalizer(WithCorrections(extra))
	q := n.Normalize("exprt fails")

	assert.Contains(t, q.Terms, "export")
	assert.NotContains(t, q.Terms, "exprt")
}
