package cart

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeyFor derives the item key for a product/variation pair. fingerprint is
// empty for standard items and the matcher fingerprint for customized ones.
func KeyFor(productID, variationID int64, fingerprint string) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(productID, 10))
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(variationID, 10))
	if fingerprint != "" {
		b.WriteByte('_')
		b.WriteString(fingerprint)
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(b.String()))
}

// Matcher decides when two customization payloads describe the same item.
// Equal payloads must produce equal fingerprints.
type Matcher interface {
	Fingerprint(customization map[string]string) string
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(map[string]string) string

func (f MatcherFunc) Fingerprint(c map[string]string) string { return f(c) }

// FieldMatcher treats payloads as equal when the listed fields are equal.
func FieldMatcher(fields ...string) Matcher {
	return MatcherFunc(func(c map[string]string) string {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f+"="+strings.TrimSpace(c[f]))
		}
		return strings.Join(parts, "&")
	})
}

// ColorMatcher merges customized items that share the color field only.
var ColorMatcher = FieldMatcher("color")

// ExactMatcher merges customized items only when the whole payload matches.
var ExactMatcher = MatcherFunc(func(c map[string]string) string {
	keys := slices.Sorted(maps.Keys(c))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+c[k])
	}
	return strings.Join(parts, "&")
})

// MatcherByName returns the matcher configured by name.
func MatcherByName(name string) (Matcher, bool) {
	switch name {
	case "", "color":
		return ColorMatcher, true
	case "exact":
		return ExactMatcher, true
	default:
		return nil, false
	}
}
