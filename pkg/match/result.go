// Package match classifies external agency names against the canonical
// registry. Resolution runs through priority tiers: exact name, canonical
// name, alias, then fuzzy scoring over generated variations. Ambiguity is
// always surfaced, never auto-resolved.
package match

import (
	"fmt"

	"github.com/agencymap/agencymap/pkg/registry"
)

// Tier is the match-strength classification explaining why a match was
// accepted.
type Tier string

const (
	// TierExact is a case-insensitive match on the display name.
	TierExact Tier = "exact"
	// TierCanonicalName is a case-insensitive match on the canonical name.
	TierCanonicalName Tier = "canonical-name"
	// TierAlias is a case-insensitive match on a stored alias.
	TierAlias Tier = "alias"
	// TierFuzzy is an accepted similarity-scored match.
	TierFuzzy Tier = "fuzzy"
)

// Status is the outcome of resolving one name.
type Status string

const (
	// StatusMatched means exactly one record was accepted.
	StatusMatched Status = "matched"
	// StatusAmbiguous means more than one record exceeded the threshold.
	StatusAmbiguous Status = "ambiguous"
	// StatusUnmatched means no record was accepted.
	StatusUnmatched Status = "unmatched"
)

// Candidate is one registry record considered for a name, with the score
// and tier that justify it.
type Candidate struct {
	Record *registry.Record
	Score  float64
	Tier   Tier
	Reason string
}

// String returns a short human-readable description of the candidate.
func (c Candidate) String() string {
	return fmt.Sprintf("%s [%s %.3f]", c.Record, c.Tier, c.Score)
}

// Result is the outcome of resolving one external name against the
// registry.
type Result struct {
	// Name is the raw name that was resolved
	Name string

	// Status classifies the outcome
	Status Status

	// Candidate is the accepted match when Status is StatusMatched
	Candidate *Candidate

	// Candidates are all over-threshold records when Status is
	// StatusAmbiguous
	Candidates []Candidate

	// BestScore is the highest score seen, informative even on
	// StatusUnmatched
	BestScore float64

	// Err carries the surfaced error for ambiguous and unmatched outcomes
	Err error
}

// Matched reports whether the resolution accepted exactly one record.
func (r Result) Matched() bool {
	return r.Status == StatusMatched
}
