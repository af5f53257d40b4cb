// Package agencymap reconciles noisy, human-entered agency names against a
// canonical registry of California state agency records. External
// observations resolve to existing records through tiered matching; the
// registry mutates only through reviewed, diffed, validated change-sets
// applied with backup and atomic replace. The engine never creates new
// canonical records.
package agencymap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agencymap/agencymap/pkg/approval"
	"github.com/agencymap/agencymap/pkg/batch"
	"github.com/agencymap/agencymap/pkg/differ"
	"github.com/agencymap/agencymap/pkg/errors"
	"github.com/agencymap/agencymap/pkg/logging"
	"github.com/agencymap/agencymap/pkg/match"
	"github.com/agencymap/agencymap/pkg/registry"
	"github.com/agencymap/agencymap/pkg/update"
)

// Client ties the reconcile pipeline together: registry, resolver, differ,
// update manager, and the injected approval provider. One client serves one
// sequential run; concurrent invocations against the same registry file are
// unsupported and must be serialized by the caller.
type Client struct {
	reg      *registry.Registry
	resolver *match.Resolver
	updater  *update.Manager
	approver approval.Provider
	config   *config
	log      zerolog.Logger
}

// New creates a Client with the given options. A registry path (or a
// preloaded registry) is required.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		config:   defaultConfig(),
		approver: approval.NewConsole(),
		log:      *logging.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	if c.reg == nil {
		if c.config.registryPath == "" {
			return nil, &errors.ConfigError{Component: "client", Message: "no registry path or registry provided"}
		}
		reg, err := registry.Load(c.config.registryPath)
		if err != nil {
			return nil, err
		}
		c.reg = reg
	}

	if c.resolver == nil {
		c.resolver = match.NewResolver(c.reg,
			match.WithThreshold(c.config.threshold),
			match.WithLogger(c.log),
		)
	}
	if c.updater == nil {
		c.updater = update.NewManager(update.WithLogger(c.log))
	}

	return c, nil
}

// Registry returns the live registry. Mutations must go through Reconcile
// or the update manager; direct edits bypass the safety protocol.
func (c *Client) Registry() *registry.Registry {
	return c.reg
}

// Resolve classifies a raw external name against the registry.
func (c *Client) Resolve(rawName string) match.Result {
	return c.resolver.Resolve(rawName)
}

// Dedupe runs self-deduplication over the registry.
func (c *Client) Dedupe() []match.Result {
	return c.resolver.Dedupe()
}

// Reconcile resolves one observation, proposes a change-set for the
// matched record, and applies it if approved. The returned outcome and
// reason are what a batch run records in its checkpoint.
func (c *Client) Reconcile(ctx context.Context, obs registry.Observation) (batch.Outcome, string, error) {
	result := c.Resolve(obs.RawName)

	switch result.Status {
	case match.StatusAmbiguous:
		return batch.OutcomeAmbiguous, result.Err.Error(), nil
	case match.StatusUnmatched:
		return batch.OutcomeUnmatched, result.Err.Error(), nil
	}

	rec := result.Candidate.Record
	cs, err := c.propose(rec, result, obs)
	if err != nil {
		return batch.OutcomeFailed, err.Error(), err
	}
	if cs.IsEmpty() {
		return batch.OutcomeMatched, "no changes", nil
	}

	c.log.Info().
		Str("record", rec.ID()).
		Str("name", obs.RawName).
		Int("changes", len(cs.Changes)).
		Msg("proposing change-set")

	approved, err := c.approver.Propose(ctx, rec, cs)
	if err != nil {
		return batch.OutcomeFailed, err.Error(), err
	}
	c.log.Info().
		Str("record", rec.ID()).
		Bool("approved", approved).
		Msg("approval answer")
	if !approved {
		return batch.OutcomeFailed, "change-set declined", nil
	}

	if err := c.updater.Apply(c.reg, cs); err != nil {
		return batch.OutcomeFailed, err.Error(), err
	}
	return batch.OutcomeMatched, string(result.Candidate.Tier), nil
}

// RunBatch drives Reconcile over the observations with checkpointed
// resumable progress.
func (c *Client) RunBatch(ctx context.Context, observations []registry.Observation) (batch.Summary, error) {
	runner := batch.NewRunner(c.Reconcile, c.config.checkpointDir,
		batch.WithCheckpointInterval(c.config.checkpointInterval),
		batch.WithRetryPolicy(c.config.retry),
		batch.WithLogger(c.log),
	)
	return runner.Run(ctx, observations)
}

// propose builds the change-set for a matched observation: observed
// budget/position values land in the record's yearly maps, and a
// fuzzy-matched raw spelling is remembered as an alias so the next run
// matches it exactly.
func (c *Client) propose(rec *registry.Record, result match.Result, obs registry.Observation) (*differ.ChangeSet, error) {
	updated := rec.Copy()

	if obs.SourceYear != "" {
		if amount, ok := obs.Payload["budget"]; ok {
			if updated.Budgets == nil {
				updated.Budgets = make(map[string]float64)
			}
			updated.Budgets[obs.SourceYear] = amount
		}
		if positions, ok := obs.Payload["positions"]; ok {
			if updated.Positions == nil {
				updated.Positions = make(map[string]float64)
			}
			updated.Positions[obs.SourceYear] = positions
		}
	}

	if result.Candidate.Tier == match.TierFuzzy {
		updated.AddAlias(obs.RawName)
	}

	changes, err := differ.Diff(rec, updated)
	if err != nil {
		return nil, err
	}

	return &differ.ChangeSet{
		RecordID: rec.ID(),
		Changes:  changes,
		Score:    result.Candidate.Score,
		Reason:   fmt.Sprintf("observation from %s (%s)", obs.SourceFile, obs.SourceYear),
	}, nil
}
