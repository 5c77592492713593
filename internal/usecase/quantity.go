package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bodybest/backend/internal/domain"
	"github.com/bodybest/backend/internal/infrastructure/products"
)

// Quantity text patterns. Inputs arrive in Bulgarian or English, with either
// decimal separator.
var (
	// "150", "150 гр", "150г", "100 g", "80 грама"
	gramsTextRegex = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(?:г|гр|грама|g|gr|grams?)?\.?$`)

	// "2 x ябълка", "3х банан" (latin x, cyrillic х, or *)
	countTimesRegex = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*[x*х]\s*(\S.*)$`)

	// "1 бр.", "2 броя", "3 филии"
	countUnitRegex = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(\p{L}+)\.?$`)
)

// countWords are generic piece units that map to a product's first measure
var countWords = map[string]bool{
	"бр": true, "брой": true, "броя": true, "бройки": true,
	"pcs": true, "piece": true, "pieces": true,
}

// QuantityResolver turns a quantity signal into grams, or into a descriptive
// phrase for the remote estimator when no local resolution is possible. It
// never fails: an unusable signal yields an empty QuantitySpec.
type QuantityResolver struct {
	catalog *products.Catalog
	matcher *ProductMatcher
	logger  *zap.Logger
}

// NewQuantityResolver creates a quantity resolver sharing the matcher's catalog
func NewQuantityResolver(catalog *products.Catalog, matcher *ProductMatcher, logger *zap.Logger) *QuantityResolver {
	return &QuantityResolver{
		catalog: catalog,
		matcher: matcher,
		logger:  logger,
	}
}

// Resolve applies the resolution rules in priority order: explicit grams or a
// gram-pattern parse, a "<count> x <product>" phrase, a selected measure
// card, a manual count with a measure name, then a descriptive fallback.
func (r *QuantityResolver) Resolve(description string, q domain.QuantitySignal) domain.QuantitySpec {
	if q.Grams > 0 {
		return domain.QuantitySpec{Grams: q.Grams}
	}

	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text != "" {
		if m := gramsTextRegex.FindStringSubmatch(text); m != nil {
			if grams, ok := parseNumber(m[1]); ok && grams > 0 {
				return domain.QuantitySpec{Grams: grams}
			}
		}

		if m := countTimesRegex.FindStringSubmatch(text); m != nil {
			count, ok := parseNumber(m[1])
			if ok && count > 0 {
				if grams, found := r.firstMeasureGrams(m[2], description); found {
					return domain.QuantitySpec{Grams: count * grams}
				}
				return domain.QuantitySpec{Descriptive: text}
			}
		}

		if m := countUnitRegex.FindStringSubmatch(text); m != nil {
			count, ok := parseNumber(m[1])
			if ok && count > 0 {
				if grams, found := r.measureGrams(description, m[2]); found {
					return domain.QuantitySpec{Grams: count * grams}
				}
				return domain.QuantitySpec{Descriptive: formatCount(count) + " " + m[2]}
			}
		}
	}

	if q.Measure != nil && q.Measure.Grams > 0 {
		count := q.Count
		if count <= 0 {
			count = 1
		}
		return domain.QuantitySpec{Grams: count * q.Measure.Grams}
	}

	if q.Count > 0 {
		unit := strings.TrimSpace(q.Unit)
		if unit != "" {
			if grams, found := r.measureGrams(description, unit); found {
				return domain.QuantitySpec{Grams: q.Count * grams}
			}
			return domain.QuantitySpec{Descriptive: formatCount(q.Count) + " " + strings.ToLower(unit)}
		}
		if grams, found := r.measureGrams(description, "бр"); found {
			return domain.QuantitySpec{Grams: q.Count * grams}
		}
		return domain.QuantitySpec{Descriptive: formatCount(q.Count)}
	}

	if text != "" {
		return domain.QuantitySpec{Descriptive: text}
	}

	return domain.QuantitySpec{}
}

// firstMeasureGrams resolves the product named in a "<count> x <product>"
// phrase (falling back to the description) and returns its first measure
// weight.
func (r *QuantityResolver) firstMeasureGrams(name, description string) (float64, bool) {
	key, ok := r.matcher.Match(name)
	if !ok {
		key, ok = r.matcher.Match(description)
	}
	if !ok {
		return 0, false
	}

	product, ok := r.catalog.Get(key)
	if !ok || len(product.Measures) == 0 {
		return 0, false
	}
	return product.Measures[0].Grams, true
}

// measureGrams finds the gram weight of a named measure on the product the
// description resolves to. Generic count words ("бр", "броя") fall back to
// the product's first measure.
func (r *QuantityResolver) measureGrams(description, unit string) (float64, bool) {
	key, ok := r.matcher.Match(description)
	if !ok {
		return 0, false
	}

	product, ok := r.catalog.Get(key)
	if !ok || len(product.Measures) == 0 {
		return 0, false
	}

	unit = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(unit)), ".")
	for _, measure := range product.Measures {
		if labelMatches(measure.Label, unit) {
			return measure.Grams, true
		}
	}

	if countWords[unit] {
		return product.Measures[0].Grams, true
	}

	r.logger.Debug("no measure for unit",
		zap.String("product", key),
		zap.String("unit", unit))
	return 0, false
}

// labelMatches compares a measure label against a user unit, tolerating a
// trailing dot, prefix forms ("бр" for "броя") and simple plural endings
// ("филии" for "филия").
func labelMatches(label, unit string) bool {
	label = strings.TrimSuffix(strings.ToLower(label), ".")
	if label == "" || unit == "" {
		return false
	}
	if label == unit || strings.HasPrefix(unit, label) || strings.HasPrefix(label, unit) {
		return true
	}

	lr, ur := []rune(label), []rune(unit)
	if len(lr) >= 4 && len(ur) >= 4 {
		return string(lr[:len(lr)-1]) == string(ur[:len(ur)-1])
	}
	return false
}

// parseNumber parses a number accepting both decimal separators
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// formatCount renders a count without a trailing ".0"
func formatCount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
