// Package normalize canonicalizes raw agency names into comparable token
// form and generates bounded sets of alternate surface forms. Scraped CSVs,
// PDF-extracted lines, and API responses spell the same agency many ways;
// everything downstream (scoring, matching) compares normalized forms only.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents removes combining marks after NFD decomposition, so
// "San José" and "San Jose" normalize identically.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// phraseStopwords are structural multi-word phrases removed wholesale.
// Longer phrases come first so "state of california" wins over "state".
var phraseStopwords = []string{
	"department of",
	"office of",
	"state of california",
	"state of",
}

// tokenStopwords are single structural tokens removed after synonym
// standardization.
var tokenStopwords = map[string]bool{
	"office":     true,
	"board":      true,
	"state":      true,
	"california": true,
	"the":        true,
	"of":         true,
}

// synonyms standardizes entity-type abbreviations to one spelling before
// stopword removal, so "Dept. of Forestry" and "Department of Forestry"
// normalize identically. Every value must be a fixed point of the map.
var synonyms = map[string]string{
	"dept":       "department",
	"depts":      "department",
	"departmnt":  "department",
	"univ":       "university",
	"svc":        "services",
	"svcs":       "services",
	"serv":       "services",
	"service":    "services",
	"ctr":        "center",
	"cntr":       "center",
	"hwy":        "highway",
	"env":        "environmental",
	"mgmt":       "management",
	"admin":      "administration",
	"comm":       "commission",
	"healthcare": "health care",
	"ca":         "california",
	"calif":      "california",
}

// Normalize canonicalizes a raw name: lowercase, accents stripped,
// punctuation removed, whitespace collapsed, entity-type synonyms
// standardized, and structural stopwords dropped. It is idempotent and
// never fails; empty input yields the empty string.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)

	if folded, _, err := transform.String(stripAccents, s); err == nil {
		s = folded
	}

	// Ampersand is a spelling of "and", not punctuation.
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	s = b.String()

	// Standardize synonyms token-by-token before phrase removal so that
	// "dept of" collapses into the "department of" phrase stopword.
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if std, ok := synonyms[tok]; ok {
			tokens[i] = std
		}
	}
	s = strings.Join(tokens, " ")

	for _, phrase := range phraseStopwords {
		s = strings.ReplaceAll(s, phrase+" ", " ")
		s = strings.TrimSuffix(strings.TrimSpace(s), " "+phrase)
	}

	tokens = tokens[:0]
	for _, tok := range strings.Fields(s) {
		if tokenStopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}

	return strings.Join(tokens, " ")
}

// Tokens returns the normalized token list for a name.
func Tokens(s string) []string {
	normalized := Normalize(s)
	if normalized == "" {
		return nil
	}
	return strings.Fields(normalized)
}
