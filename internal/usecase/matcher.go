package usecase

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/bodybest/backend/internal/infrastructure/products"
)

// Package-level compiled regex patterns for query normalization
var (
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multiSpaceRegex  = regexp.MustCompile(`\s+`)
)

// ProductMatcher resolves free-text food descriptions to canonical catalog
// keys: exact hit, synonym hit, then bounded edit-distance search.
type ProductMatcher struct {
	catalog *products.Catalog
	logger  *zap.Logger
}

// NewProductMatcher creates a matcher over an immutable catalog
func NewProductMatcher(catalog *products.Catalog, logger *zap.Logger) *ProductMatcher {
	return &ProductMatcher{
		catalog: catalog,
		logger:  logger,
	}
}

// NormalizeQuery canonicalizes a raw description: NFC form, lowercase,
// punctuation stripped, whitespace collapsed. Composed and decomposed
// Cyrillic inputs map to the same string.
func NormalizeQuery(query string) string {
	s := norm.NFC.String(query)
	s = strings.ToLower(s)
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// firstToken returns the leading whitespace-separated token
func firstToken(s string) string {
	if idx := strings.IndexByte(s, ' '); idx > 0 {
		return s[:idx]
	}
	return s
}

// maxEditDistance is the acceptance threshold for a query of the given rune
// length: max(1, floor(0.3 * length)). Anything above is a rejected match.
func maxEditDistance(queryLen int) int {
	limit := queryLen * 3 / 10
	if limit < 1 {
		limit = 1
	}
	return limit
}

// Match resolves a raw description to a canonical product key. Returns the
// key and true on success; an empty query or a best candidate beyond the
// distance threshold yields false.
func (m *ProductMatcher) Match(query string) (string, bool) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return "", false
	}

	// Full normalized string first so multi-word catalog entries stay reachable
	if _, ok := m.catalog.Get(normalized); ok {
		return normalized, true
	}
	if canonical, ok := m.catalog.CanonicalFor(normalized); ok {
		return canonical, true
	}

	token := firstToken(normalized)
	if _, ok := m.catalog.Get(token); ok {
		return token, true
	}
	if canonical, ok := m.catalog.CanonicalFor(token); ok {
		return canonical, true
	}

	return m.closestKey(token)
}

// closestKey scans every catalog key for the minimum edit distance. Keys are
// iterated in alphabetical order, so ties resolve to the alphabetically first
// candidate and matching is deterministic for a fixed catalog.
func (m *ProductMatcher) closestKey(token string) (string, bool) {
	queryRunes := []rune(token)
	best := ""
	bestDistance := -1

	for _, key := range m.catalog.Keys() {
		d := editDistance(queryRunes, []rune(key))
		if bestDistance < 0 || d < bestDistance {
			bestDistance = d
			best = key
		}
	}

	if best == "" {
		return "", false
	}

	limit := maxEditDistance(len(queryRunes))
	if bestDistance > limit {
		m.logger.Debug("fuzzy match rejected",
			zap.String("query", token),
			zap.String("candidate", best),
			zap.Int("distance", bestDistance),
			zap.Int("limit", limit))
		return "", false
	}

	m.logger.Debug("fuzzy match accepted",
		zap.String("query", token),
		zap.String("product", best),
		zap.Int("distance", bestDistance))

	return best, true
}

// editDistance computes the Levenshtein distance between two rune slices
// using two rows instead of a full matrix.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
