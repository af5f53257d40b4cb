package batch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/errors"
	"github.com/agencymap/agencymap/pkg/logging"
	"github.com/agencymap/agencymap/pkg/registry"
)

// Handler processes one external observation and reports its outcome. The
// reason string explains non-matched outcomes for the checkpoint record.
// Errors that satisfy errors.IsWriteFailed abort the whole run; everything
// else is recorded as failed and the batch continues.
type Handler func(ctx context.Context, obs registry.Observation) (Outcome, string, error)

// Summary is the aggregate result of a batch run. No outcome is silently
// dropped: matched + ambiguous + unmatched + failed equals the processed
// count.
type Summary struct {
	Matched   int
	Ambiguous int
	Unmatched int
	Failed    int
	Total     int
	Resumed   int // units skipped because a checkpoint already recorded them
}

// String returns the end-of-run summary line.
func (s Summary) String() string {
	return fmt.Sprintf("matched=%d ambiguous=%d unmatched=%d failed=%d (total=%d, resumed past %d)",
		s.Matched, s.Ambiguous, s.Unmatched, s.Failed, s.Total, s.Resumed)
}

// Runner drives a handler over an ordered unit list with resumable
// checkpointed progress.
type Runner struct {
	handler       Handler
	checkpointDir string
	interval      int
	retry         RetryPolicy
	keepOnFinish  bool
	log           zerolog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCheckpointInterval sets how many units are processed between
// checkpoint writes.
func WithCheckpointInterval(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.interval = n
		}
	}
}

// WithRetryPolicy sets the retry policy for rate-limited units.
func WithRetryPolicy(p RetryPolicy) RunnerOption {
	return func(r *Runner) {
		r.retry = p
	}
}

// WithKeepCheckpoints keeps checkpoint files after a clean finish instead
// of discarding them.
func WithKeepCheckpoints() RunnerOption {
	return func(r *Runner) {
		r.keepOnFinish = true
	}
}

// WithLogger sets the logger used to record run progress.
func WithLogger(log zerolog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = log
	}
}

// NewRunner creates a Runner that checkpoints into checkpointDir.
func NewRunner(handler Handler, checkpointDir string, opts ...RunnerOption) *Runner {
	r := &Runner{
		handler:       handler,
		checkpointDir: checkpointDir,
		interval:      constants.CheckpointInterval,
		retry:         DefaultRetryPolicy(),
		log:           *logging.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes the ordered units, resuming from the latest checkpoint if
// one exists. Per-unit errors are recorded into the checkpoint and the
// batch continues; registry write failures abort the run after persisting
// progress, because the shared resource's integrity is at risk.
func (r *Runner) Run(ctx context.Context, units []registry.Observation) (Summary, error) {
	checkpoint, err := LoadLatest(r.checkpointDir)
	if err != nil {
		return Summary{}, err
	}
	if checkpoint == nil {
		checkpoint = &Checkpoint{TotalCount: len(units)}
	} else {
		r.log.Info().
			Int("processed", checkpoint.ProcessedCount).
			Int("total", checkpoint.TotalCount).
			Str("last", checkpoint.LastProcessedID).
			Msg("resuming from checkpoint")
		checkpoint.TotalCount = len(units)
	}

	done := checkpoint.Processed()
	resumed := len(done)
	sinceCheckpoint := 0

	for _, obs := range units {
		if done[obs.ID()] {
			continue
		}
		if err := ctx.Err(); err != nil {
			// External cancellation: persist progress and stop.
			if saveErr := checkpoint.Save(r.checkpointDir); saveErr != nil {
				r.log.Error().Err(saveErr).Msg("checkpoint save failed during cancellation")
			}
			return r.summarize(checkpoint, resumed), errors.ErrCanceled
		}

		outcome, reason, unitErr := r.process(ctx, obs)

		if unitErr != nil && errors.IsWriteFailed(unitErr) {
			// Registry-level failure: record, persist, abort.
			checkpoint.Record(UnitResult{ID: obs.ID(), Outcome: OutcomeFailed, Reason: unitErr.Error()})
			if saveErr := checkpoint.Save(r.checkpointDir); saveErr != nil {
				r.log.Error().Err(saveErr).Msg("checkpoint save failed during abort")
			}
			r.log.Error().Err(unitErr).Str("unit", obs.ID()).Msg("registry write failed, aborting run")
			return r.summarize(checkpoint, resumed), unitErr
		}

		checkpoint.Record(UnitResult{ID: obs.ID(), Outcome: outcome, Reason: reason})
		sinceCheckpoint++

		if sinceCheckpoint >= r.interval {
			if err := checkpoint.Save(r.checkpointDir); err != nil {
				return r.summarize(checkpoint, resumed), err
			}
			sinceCheckpoint = 0
		}
	}

	// Persist at run end, then discard on clean finish.
	if err := checkpoint.Save(r.checkpointDir); err != nil {
		return r.summarize(checkpoint, resumed), err
	}
	summary := r.summarize(checkpoint, resumed)
	if !r.keepOnFinish {
		if err := Discard(r.checkpointDir); err != nil {
			r.log.Warn().Err(err).Msg("could not discard checkpoints after clean finish")
		}
	}

	r.log.Info().Str("summary", summary.String()).Msg("batch complete")
	return summary, nil
}

// process runs the handler for one unit under the retry policy.
func (r *Runner) process(ctx context.Context, obs registry.Observation) (Outcome, string, error) {
	var outcome Outcome
	var reason string

	err := r.retry.Do(ctx, func() error {
		var handlerErr error
		outcome, reason, handlerErr = r.handler(ctx, obs)
		return handlerErr
	})
	if err != nil {
		if errors.IsRateLimited(err) {
			reason = "rate limit retries exhausted: " + err.Error()
		} else if reason == "" {
			reason = err.Error()
		}
		if !errors.IsWriteFailed(err) {
			r.log.Warn().Err(err).Str("unit", obs.ID()).Msg("unit failed")
		}
		return OutcomeFailed, reason, err
	}
	return outcome, reason, nil
}

// summarize folds checkpoint results into aggregate counts.
func (r *Runner) summarize(checkpoint *Checkpoint, resumed int) Summary {
	s := Summary{Total: checkpoint.TotalCount, Resumed: resumed}
	for _, result := range checkpoint.Results {
		switch result.Outcome {
		case OutcomeMatched:
			s.Matched++
		case OutcomeAmbiguous:
			s.Ambiguous++
		case OutcomeUnmatched:
			s.Unmatched++
		default:
			s.Failed++
		}
	}
	return s
}
