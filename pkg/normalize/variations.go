package normalize

import (
	"strings"

	"github.com/agencymap/agencymap/pkg/constants"
)

// variationPrefixes are leading qualifiers stripped to produce alternate
// surface forms of a name.
var variationPrefixes = []string{
	"california ",
	"state of california ",
	"state ",
	"the ",
}

// variationSuffixes are trailing entity-type words stripped to produce
// alternate surface forms.
var variationSuffixes = []string{
	" department",
	" agency",
	" office",
	" board",
	" commission",
	" authority",
	" program",
}

// variationPairs are domain synonym spellings swapped in both directions.
var variationPairs = [][2]string{
	{"health care", "healthcare"},
	{"dept", "department"},
	{"univ", "university"},
	{"center", "centre"},
	{"services", "service"},
}

// Variations produces a bounded, deterministic set of alternate surface
// forms for a name: the normalized form itself, prefix/suffix-stripped
// forms, "&"/"and" interchanges, word-order rotations, and domain synonym
// swaps. Every form is normalized; duplicates are dropped preserving first
// occurrence, and the set is capped at constants.MaxVariations.
func Variations(name string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(form string) {
		if len(out) >= constants.MaxVariations {
			return
		}
		normalized := Normalize(form)
		if normalized == "" || seen[normalized] {
			return
		}
		seen[normalized] = true
		out = append(out, normalized)
	}

	add(name)

	lower := strings.ToLower(strings.TrimSpace(name))

	// Ampersand interchange on the raw form. Normalize already folds "&"
	// into "and"; the reverse spelling matters for synonym pair swaps below.
	add(strings.ReplaceAll(lower, " and ", " & "))

	// Prefix and suffix stripping.
	for _, prefix := range variationPrefixes {
		if strings.HasPrefix(lower, prefix) {
			add(strings.TrimPrefix(lower, prefix))
		}
	}
	for _, suffix := range variationSuffixes {
		if strings.HasSuffix(lower, suffix) {
			add(strings.TrimSuffix(lower, suffix))
		}
	}

	// Domain synonym swaps, both directions.
	for _, pair := range variationPairs {
		if strings.Contains(lower, pair[0]) {
			add(strings.ReplaceAll(lower, pair[0], pair[1]))
		}
		if strings.Contains(lower, pair[1]) {
			add(strings.ReplaceAll(lower, pair[1], pair[0]))
		}
	}

	// Word-order rotations of the normalized token list: first token moved
	// to the end, last token moved to the front. Catches "Forestry
	// Department" vs "Department, Forestry" style inversions.
	tokens := Tokens(name)
	if n := len(tokens); n > 1 {
		rotated := append(append([]string(nil), tokens[1:]...), tokens[0])
		add(strings.Join(rotated, " "))

		rotated = append([]string{tokens[n-1]}, tokens[:n-1]...)
		add(strings.Join(rotated, " "))
	}

	return out
}
