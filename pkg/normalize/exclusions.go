package normalize

import (
	"strings"
	"unicode"
)

// ExclusionRule names two disjoint institution classes by their
// discriminating marker tokens. When one name carries a marker from class A
// and the other a marker from class B, the pair must never match, no matter
// how much the remaining text overlaps. Rules are pluggable; DefaultRules
// covers the classes that collide in California agency data.
type ExclusionRule struct {
	// Name labels the rule for log output
	Name string

	// ClassA and ClassB are the marker phrases of the two classes.
	// Markers are matched against the folded (lowercased, punctuation
	// stripped) name, not the stopword-stripped normalized form, because
	// stopword removal can erase the discriminating words themselves.
	ClassA []string
	ClassB []string
}

// DefaultRules are the mutually exclusive institution classes observed to
// collide on textual similarity alone.
var DefaultRules = []ExclusionRule{
	{
		Name:   "uc-vs-csu",
		ClassA: []string{"uc", "university of california"},
		ClassB: []string{"csu", "california state university", "state university"},
	},
	{
		Name:   "veterans-home-vs-developmental-center",
		ClassA: []string{"veterans home"},
		ClassB: []string{"developmental center"},
	},
	{
		Name:   "courts-vs-corrections",
		ClassA: []string{"superior court", "judicial"},
		ClassB: []string{"corrections", "state prison"},
	},
}

// Excluded reports whether the pair of names trips any rule: one name
// carrying a marker for one class while the other carries a marker for the
// disjoint class. Both orderings are checked, so the result is symmetric.
func Excluded(a, b string, rules []ExclusionRule) (bool, string) {
	fa := fold(a)
	fb := fold(b)

	for _, rule := range rules {
		if (carries(fa, rule.ClassA) && carries(fb, rule.ClassB)) ||
			(carries(fa, rule.ClassB) && carries(fb, rule.ClassA)) {
			return true, rule.Name
		}
	}
	return false, ""
}

// fold lowercases and strips punctuation without removing stopwords.
// Stopword removal would erase discriminating words like "state".
func fold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// carries reports whether the folded name contains any marker phrase on
// word boundaries.
func carries(folded string, markers []string) bool {
	padded := " " + folded + " "
	for _, m := range markers {
		if strings.Contains(padded, " "+m+" ") {
			return true
		}
	}
	return false
}
