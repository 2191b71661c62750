// Package normalize provides the string comparison rules shared by the tag
// index and the query engine.
//
// Tag identity on items and every filter comparison use Unicode case folding.
// Vocabulary membership can additionally be exact, see [Policy].
package normalize

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the case-folded form of s used for case-insensitive comparison.
// A cases.Caser keeps state between calls, so each call gets its own.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// EqualFold reports whether a and b are equal under case folding.
func EqualFold(a, b string) bool {
	return a == b || Fold(a) == Fold(b)
}

// CollapseSpace trims s and replaces every internal whitespace run with a
// single space.
// "  slow   burn " -> "slow burn".
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TagName canonicalizes user input for a free tag name. Case is preserved.
func TagName(s string) string {
	return CollapseSpace(s)
}

// Terms splits search text on whitespace and folds every term.
func Terms(text string) []string {
	fields := strings.Fields(text)
	for i, f := range fields {
		fields[i] = Fold(f)
	}
	return fields
}

// CategoryKey derives the immutable key of a structured category from its label.
// "Film Stock" -> "film_stock".
// "  ISO  Speed " -> "iso_speed".
func CategoryKey(label string) string {
	s := norm.NFKC.String(label)
	s = Fold(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), "_")
}

// DedupeFold removes entries that are equal under case folding, keeping the
// first spelling of each. Empty entries are dropped.
func DedupeFold(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" {
			continue
		}
		k := Fold(t)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

// IndexFold returns the index of the first entry equal to s under case
// folding, or -1.
func IndexFold(list []string, s string) int {
	k := Fold(s)
	return slices.IndexFunc(list, func(e string) bool { return Fold(e) == k })
}

// Policy selects how vocabulary membership is decided.
type Policy string

const (
	// PolicyExact treats differently-cased names as distinct vocabulary entries.
	PolicyExact Policy = "exact"
	// PolicyFold treats differently-cased names as the same vocabulary entry.
	PolicyFold Policy = "fold"
)

// Valid returns true if the policy is recognized.
func (p Policy) Valid() bool {
	return p == PolicyExact || p == PolicyFold
}

// Match reports whether a and b name the same vocabulary entry under the policy.
func (p Policy) Match(a, b string) bool {
	if p == PolicyFold {
		return EqualFold(a, b)
	}
	return a == b
}
