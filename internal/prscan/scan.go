// Package prscan extracts problem-report identifiers from release-note
// page text and classifies each mention by the section it appears
// under.
package prscan

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/relnote-labs/prsearch/internal/core/domain"
)

const (
	// contextRadius is the number of characters captured on each side
	// of a mention, clamped to the page bounds.
	contextRadius = 150

	// referenceWindow is how far back a reference keyword may sit for
	// a mention to count as a cross-reference rather than a
	// definition.
	referenceWindow = 100
)

// prPattern matches a PR identifier: case-insensitive "PR" prefix, an
// optional hyphen or space, and five or six digits.
var prPattern = regexp.MustCompile(`(?i)\bPR[-\s]?(\d{5,6})\b`)

// sectionHeadingPattern matches the numbered heading form
// "5.1.2.3.4. PR-123456 :" whose top-level section number classifies
// the PR directly.
var sectionHeadingPattern = regexp.MustCompile(`(?m)^\s*(\d+)(?:\.\d+){3,5}\.?\s+PR[-\s]?(\d{5,6})\b`)

// Heading vocabularies. Matching is case-insensitive on whole heading
// lines; longer phrases are listed first so they win over their
// substrings.
var (
	newFeatureHeadings = []string{
		"new and enhanced features",
		"new features",
		"enhanced features",
		"ald features",
		"features from",
	}

	issueFixHeadings = []string{
		"problem report and escalations",
		"problem reports",
		"escalations",
		"defect fixes",
		"bug fixes",
	}
)

// referenceKeywords mark a mention as pointing at a PR defined
// elsewhere. Such mentions are suppressed.
var referenceKeywords = []string{
	"history",
	"see pr",
	"related pr",
	"refer to",
	"same as",
	"duplicate",
	"fixed in",
	"introduced in",
	"caused by",
	"root cause",
}

// Extract finds all PR mentions on one page of text. Duplicate PR
// numbers on the same page collapse to the first occurrence.
func Extract(text string, fileID int64, pageNum int) []domain.PRMention {
	matches := prPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	sectionClasses := sectionClassesByPR(text)

	seen := make(map[string]bool, len(matches))
	var mentions []domain.PRMention
	for _, m := range matches {
		start, end := m[0], m[1]
		digits := text[m[2]:m[3]]
		pr := canonical(digits)

		if seen[pr] {
			continue
		}
		if isReference(text, start) {
			continue
		}
		seen[pr] = true

		class, ok := sectionClasses[pr]
		if !ok {
			class = Classify(text, start)
		}

		mentions = append(mentions, domain.PRMention{
			PRNumber: pr,
			FileID:   fileID,
			PageNum:  pageNum,
			Class:    class,
			Context:  snippet(text, start, end),
		})
	}

	return mentions
}

// Classify determines the classification for a mention at the given
// offset by scanning backwards to the nearest preceding heading. With
// no recognisable heading above the mention the result is unknown.
func Classify(text string, offset int) domain.Classification {
	lower := strings.ToLower(text[:offset])

	newIdx := lastHeadingIndex(lower, newFeatureHeadings)
	fixIdx := lastHeadingIndex(lower, issueFixHeadings)

	switch {
	case newIdx < 0 && fixIdx < 0:
		return domain.ClassUnknown
	case newIdx > fixIdx:
		return domain.ClassNewFeature
	default:
		return domain.ClassIssueFix
	}
}

// Normalize canonicalises a PR identifier from user input. Bare digit
// runs of the right length are accepted.
func Normalize(input string) (string, error) {
	s := strings.TrimSpace(input)
	if m := prPattern.FindStringSubmatch(s); m != nil {
		return canonical(m[1]), nil
	}
	if digits := strings.TrimSpace(s); isDigits(digits) && len(digits) >= 5 && len(digits) <= 6 {
		return canonical(digits), nil
	}
	return "", fmt.Errorf("%w: not a PR identifier: %q", domain.ErrInvalidInput, input)
}

// sectionClassesByPR maps PRs announced by a numbered heading to the
// classification implied by the heading's top-level section.
func sectionClassesByPR(text string) map[string]domain.Classification {
	matches := sectionHeadingPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	classes := make(map[string]domain.Classification, len(matches))
	for _, m := range matches {
		pr := canonical(m[2])
		switch m[1] {
		case "5":
			classes[pr] = domain.ClassNewFeature
		case "6":
			classes[pr] = domain.ClassIssueFix
		}
	}
	return classes
}

// lastHeadingIndex returns the highest index at which any of the given
// headings occurs, or -1.
func lastHeadingIndex(lower string, headings []string) int {
	best := -1
	for _, h := range headings {
		if idx := strings.LastIndex(lower, h); idx > best {
			best = idx
		}
	}
	return best
}

// isReference reports whether a reference keyword appears shortly
// before the mention.
func isReference(text string, start int) bool {
	from := start - referenceWindow
	if from < 0 {
		from = 0
	}
	window := strings.ToLower(text[from:start])
	for _, kw := range referenceKeywords {
		if strings.Contains(window, kw) {
			return true
		}
	}
	return false
}

// snippet captures page text around a mention, clamped to the page.
// Window edges are nudged onto rune boundaries so multi-byte text is
// never split.
func snippet(text string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}
	for from > 0 && !utf8.RuneStart(text[from]) {
		from--
	}
	for to < len(text) && !utf8.RuneStart(text[to]) {
		to++
	}
	return strings.TrimSpace(text[from:to])
}

func canonical(digits string) string {
	return "PR-" + digits
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
