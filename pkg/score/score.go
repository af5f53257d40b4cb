// Package score computes similarity confidence between two agency names.
// The primary Score blends token overlap with a length-similarity penalty,
// because externally observed names vary more in word choice than spelling.
// EditScore, a normalized Levenshtein distance, exists only for registry
// self-deduplication where spelling drift is the signal.
package score

import (
	"math"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/normalize"
)

// Scorer computes confidence scores in [0, 1] between two strings.
// The zero value is not usable; construct with New.
type Scorer struct {
	substringBoost float64
	lengthWeight   float64
	exclusions     []normalize.ExclusionRule
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithSubstringBoost sets the bounded boost applied when one normalized
// name contains the other. The boost closes a fraction of the gap to 1.0,
// so it can never push a score past certainty.
func WithSubstringBoost(boost float64) Option {
	return func(s *Scorer) {
		s.substringBoost = boost
	}
}

// WithLengthWeight sets how strongly the length-similarity penalty blends
// into the token-overlap ratio.
func WithLengthWeight(weight float64) Option {
	return func(s *Scorer) {
		s.lengthWeight = weight
	}
}

// WithExclusions sets the mutually exclusive marker rules. A pair tripping
// a rule scores 0 regardless of textual overlap.
func WithExclusions(rules []normalize.ExclusionRule) Option {
	return func(s *Scorer) {
		s.exclusions = rules
	}
}

// New creates a Scorer with the empirically tuned defaults.
func New(opts ...Option) *Scorer {
	s := &Scorer{
		substringBoost: constants.SubstringBoost,
		lengthWeight:   constants.LengthWeight,
		exclusions:     normalize.DefaultRules,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns a confidence in [0, 1] that a and b name the same agency.
// Exact equality (raw or normalized) forces 1.0. An exclusion-rule hit
// forces 0. Otherwise the score is the token-overlap ratio blended with a
// length-similarity penalty, boosted (bounded) on substring containment.
// Score is symmetric: Score(a, b) == Score(b, a).
func (s *Scorer) Score(a, b string) float64 {
	if strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) {
		return 1.0
	}

	// Exclusions run before the normalized-equality shortcut: stopword
	// removal can erase the very markers that keep disjoint classes apart,
	// leaving identical normalized forms for names that must never match.
	if excluded, _ := normalize.Excluded(a, b, s.exclusions); excluded {
		return 0
	}

	na := normalize.Normalize(a)
	nb := normalize.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	overlap := tokenOverlap(strings.Fields(na), strings.Fields(nb))
	if overlap == 0 {
		return 0
	}

	lengthSim := lengthSimilarity(na, nb)
	result := overlap * ((1 - s.lengthWeight) + s.lengthWeight*lengthSim)

	// Containment is strong evidence one name is a qualified form of the
	// other; close part of the remaining gap to 1, never all of it.
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		result += s.substringBoost * (1 - result)
	}

	return clamp(result)
}

// EditScore returns 1 − Levenshtein/maxlen over the normalized forms.
// Used only for registry self-deduplication.
func (s *Scorer) EditScore(a, b string) float64 {
	na := normalize.Normalize(a)
	nb := normalize.Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	maxLen := len([]rune(na))
	if l := len([]rune(nb)); l > maxLen {
		maxLen = l
	}

	distance := fuzzy.LevenshteinDistance(na, nb)
	return clamp(1 - float64(distance)/float64(maxLen))
}

// tokenOverlap is the Dice coefficient over the two token multisets.
func tokenOverlap(ta, tb []string) float64 {
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	counts := make(map[string]int, len(ta))
	for _, tok := range ta {
		counts[tok]++
	}

	var shared int
	for _, tok := range tb {
		if counts[tok] > 0 {
			counts[tok]--
			shared++
		}
	}

	return float64(2*shared) / float64(len(ta)+len(tb))
}

// lengthSimilarity is the ratio of the shorter to the longer rune length.
func lengthSimilarity(a, b string) float64 {
	la := float64(len([]rune(a)))
	lb := float64(len([]rune(b)))
	return math.Min(la, lb) / math.Max(la, lb)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
