package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/errors"
	"github.com/agencymap/agencymap/pkg/logging"
	"github.com/agencymap/agencymap/pkg/normalize"
	"github.com/agencymap/agencymap/pkg/registry"
	"github.com/agencymap/agencymap/pkg/score"
)

// Resolver classifies external names against a fixed registry snapshot.
// Resolution is deterministic for a given snapshot and threshold: score
// ties keep the earliest record in registry order.
type Resolver struct {
	reg       *registry.Registry
	scorer    *score.Scorer
	threshold float64
	log       zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThreshold sets the fuzzy acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) {
		r.threshold = threshold
	}
}

// WithScorer sets the similarity scorer.
func WithScorer(s *score.Scorer) Option {
	return func(r *Resolver) {
		r.scorer = s
	}
}

// WithLogger sets the logger used to record match decisions.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) {
		r.log = log
	}
}

// NewResolver creates a Resolver over the given registry.
func NewResolver(reg *registry.Registry, opts ...Option) *Resolver {
	r := &Resolver{
		reg:       reg,
		scorer:    score.New(),
		threshold: constants.AcceptThreshold,
		log:       *logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the fuzzy acceptance threshold in use.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}

// Resolve classifies rawName against the registry. Exact tiers always win
// over fuzzy candidates: a case-insensitive hit on a display name,
// canonical name, or alias returns immediately with score 1, even when some
// other record would fuzzy-score higher.
func (r *Resolver) Resolve(rawName string) Result {
	rawName = strings.TrimSpace(rawName)
	if rawName == "" {
		return Result{Name: rawName, Status: StatusUnmatched, Err: errors.ErrInvalidInput}
	}

	// Tier 1: case-insensitive exact match.
	if c, ok := r.exact(rawName); ok {
		r.log.Info().
			Str("name", rawName).
			Str("record", c.Record.ID()).
			Str("tier", string(c.Tier)).
			Float64("score", c.Score).
			Msg("matched")
		return Result{Name: rawName, Status: StatusMatched, Candidate: c, BestScore: c.Score}
	}

	// Tier 2: best fuzzy score over variation cross-product.
	best, bestScore := r.bestFuzzy(rawName)

	if bestScore >= r.threshold {
		candidate := &Candidate{
			Record: best,
			Score:  bestScore,
			Tier:   TierFuzzy,
			Reason: fmt.Sprintf("best of %d variations at %.3f", len(normalize.Variations(rawName)), bestScore),
		}
		r.log.Info().
			Str("name", rawName).
			Str("record", best.ID()).
			Str("tier", string(TierFuzzy)).
			Float64("score", bestScore).
			Float64("threshold", r.threshold).
			Msg("matched")
		return Result{Name: rawName, Status: StatusMatched, Candidate: candidate, BestScore: bestScore}
	}

	r.log.Warn().
		Str("name", rawName).
		Float64("best_score", bestScore).
		Float64("threshold", r.threshold).
		Msg("unmatched")
	return Result{
		Name:      rawName,
		Status:    StatusUnmatched,
		BestScore: bestScore,
		Err:       &errors.UnmatchedError{Name: rawName, BestScore: bestScore},
	}
}

// exact checks the exact tiers in priority order: display name, canonical
// name, then aliases.
func (r *Resolver) exact(rawName string) (*Candidate, bool) {
	for _, rec := range r.reg.Records() {
		if strings.EqualFold(rec.Name, rawName) {
			return &Candidate{Record: rec, Score: 1, Tier: TierExact, Reason: "name equal (case-insensitive)"}, true
		}
	}
	for _, rec := range r.reg.Records() {
		if strings.EqualFold(rec.CanonicalName, rawName) {
			return &Candidate{Record: rec, Score: 1, Tier: TierCanonicalName, Reason: "canonical name equal (case-insensitive)"}, true
		}
	}
	for _, rec := range r.reg.Records() {
		if rec.HasAlias(rawName) {
			return &Candidate{Record: rec, Score: 1, Tier: TierAlias, Reason: "alias equal (case-insensitive)"}, true
		}
	}
	return nil, false
}

// bestFuzzy scores every record via the variation cross-product and keeps
// the single highest.
func (r *Resolver) bestFuzzy(rawName string) (*registry.Record, float64) {
	rawVariations := normalize.Variations(rawName)

	var best *registry.Record
	var bestScore float64

	for _, rec := range r.reg.Records() {
		s := r.scoreRecord(rawVariations, rec)
		r.log.Debug().
			Str("name", rawName).
			Str("record", rec.ID()).
			Float64("score", s).
			Msg("fuzzy candidate")

		// Strict greater-than: ties keep the earlier record, so resolution
		// is deterministic for a fixed registry order.
		if s > bestScore {
			best = rec
			bestScore = s
		}
	}

	return best, bestScore
}

// scoreRecord returns the best score between any variation of the raw name
// and any variation of the record's names.
func (r *Resolver) scoreRecord(rawVariations []string, rec *registry.Record) float64 {
	recVariations := normalize.Variations(rec.Name)
	if rec.CanonicalName != rec.Name {
		recVariations = append(recVariations, normalize.Variations(rec.CanonicalName)...)
	}

	var best float64
	for _, rv := range rawVariations {
		for _, cv := range recVariations {
			if s := r.scorer.Score(rv, cv); s > best {
				best = s
				if best == 1 {
					return best
				}
			}
		}
	}
	return best
}

// Dedupe runs self-deduplication over the registry: each record is scored
// against every other record with the normalized-edit-distance scorer. A
// record with exactly one over-threshold neighbor reports matched; with
// more than one it reports ambiguous, never an arbitrary pick.
func (r *Resolver) Dedupe() []Result {
	records := r.reg.Records()
	results := make([]Result, 0, len(records))

	for _, rec := range records {
		var over []Candidate
		for _, other := range records {
			if other == rec {
				continue
			}
			s := r.scorer.EditScore(rec.CanonicalName, other.CanonicalName)
			if s >= r.threshold {
				over = append(over, Candidate{
					Record: other,
					Score:  s,
					Tier:   TierFuzzy,
					Reason: "edit-distance self-dedup",
				})
			}
		}

		sort.Slice(over, func(i, j int) bool {
			if over[i].Score != over[j].Score {
				return over[i].Score > over[j].Score
			}
			return over[i].Record.ID() < over[j].Record.ID()
		})

		switch {
		case len(over) == 0:
			results = append(results, Result{Name: rec.CanonicalName, Status: StatusUnmatched})
		case len(over) == 1:
			c := over[0]
			results = append(results, Result{
				Name:      rec.CanonicalName,
				Status:    StatusMatched,
				Candidate: &c,
				BestScore: c.Score,
			})
		default:
			names := make([]string, len(over))
			for i, c := range over {
				names[i] = c.Record.ID()
			}
			r.log.Warn().
				Str("name", rec.CanonicalName).
				Strs("candidates", names).
				Msg("ambiguous duplicate")
			results = append(results, Result{
				Name:       rec.CanonicalName,
				Status:     StatusAmbiguous,
				Candidates: over,
				BestScore:  over[0].Score,
				Err:        errors.NewAmbiguousMatchError(rec.CanonicalName, names),
			})
		}
	}

	return results
}
