package batch

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agencymap/agencymap/pkg/errors"
	"github.com/agencymap/agencymap/pkg/logging"
	"github.com/agencymap/agencymap/pkg/registry"
)

func testUnits(n int) []registry.Observation {
	units := make([]registry.Observation, n)
	for i := range units {
		units[i] = registry.Observation{
			RawName:    fmt.Sprintf("Agency %02d", i),
			SourceFile: "scrape.csv",
			SourceYear: "2023",
		}
	}
	return units
}

func TestRunnerRun(t *testing.T) {
	dir := t.TempDir()

	outcomes := map[int]Outcome{
		1: OutcomeUnmatched,
		3: OutcomeAmbiguous,
	}

	calls := 0
	handler := func(_ context.Context, obs registry.Observation) (Outcome, string, error) {
		i := calls
		calls++
		if o, ok := outcomes[i]; ok {
			return o, "test outcome", nil
		}
		return OutcomeMatched, "", nil
	}

	r := NewRunner(handler, dir, WithLogger(logging.Nop))
	summary, err := r.Run(context.Background(), testUnits(5))
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Matched)
	assert.Equal(t, 1, summary.Ambiguous)
	assert.Equal(t, 1, summary.Unmatched)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 5, summary.Total)
	assert.Zero(t, summary.Resumed)

	// Clean finish discards checkpoints.
	c, err := LoadLatest(dir)
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestRunnerKeepCheckpoints(t *testing.T) {
	dir := t.TempDir()

	handler := func(context.Context, registry.Observation) (Outcome, string, error) {
		return OutcomeMatched, "", nil
	}

	r := NewRunner(handler, dir, WithLogger(logging.Nop), WithKeepCheckpoints())
	_, err := r.Run(context.Background(), testUnits(3))
	require.NoError(t, err)

	c, err := LoadLatest(dir)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 3, c.ProcessedCount)
}

func TestRunnerRecordsUnitFailuresAndContinues(t *testing.T) {
	dir := t.TempDir()

	handler := func(_ context.Context, obs registry.Observation) (Outcome, string, error) {
		if obs.RawName == "Agency 01" {
			return OutcomeFailed, "", errors.NewValidationError(obs.RawName, "budgets", "negative")
		}
		return OutcomeMatched, "", nil
	}

	r := NewRunner(handler, dir, WithLogger(logging.Nop))
	summary, err := r.Run(context.Background(), testUnits(4))
	require.NoError(t, err, "per-unit failures must not abort the run")

	assert.Equal(t, 3, summary.Matched)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, summary.Total, summary.Matched+summary.Ambiguous+summary.Unmatched+summary.Failed)
}

// A registry write failure aborts the whole run after persisting progress.
func TestRunnerAbortsOnWriteFailure(t *testing.T) {
	dir := t.TempDir()

	calls := 0
	handler := func(_ context.Context, obs registry.Observation) (Outcome, string, error) {
		calls++
		if obs.RawName == "Agency 02" {
			return OutcomeFailed, "", errors.NewWriteError("registry.json", "replace", true, errors.New("disk full"))
		}
		return OutcomeMatched, "", nil
	}

	r := NewRunner(handler, dir, WithLogger(logging.Nop))
	summary, err := r.Run(context.Background(), testUnits(5))

	require.Error(t, err)
	assert.True(t, errors.IsWriteFailed(err))
	assert.Equal(t, 3, calls, "units after the write failure must not run")
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 1, summary.Failed)

	// Progress survived the abort.
	c, loadErr := LoadLatest(dir)
	require.NoError(t, loadErr)
	require.NotNil(t, c)
	assert.Equal(t, 3, c.ProcessedCount)
}

// Re-running after an interrupted run must skip recorded units and end with
// the same aggregate counts an uninterrupted run would produce.
func TestRunnerResume(t *testing.T) {
	dir := t.TempDir()
	units := testUnits(6)

	// First run dies at unit 3 with a registry write failure.
	firstHandler := func(_ context.Context, obs registry.Observation) (Outcome, string, error) {
		if obs.RawName == "Agency 03" {
			return OutcomeFailed, "", errors.NewWriteError("registry.json", "replace", true, errors.New("killed"))
		}
		return OutcomeMatched, "", nil
	}
	first := NewRunner(firstHandler, dir, WithLogger(logging.Nop))
	_, err := first.Run(context.Background(), units)
	require.Error(t, err)

	// Second run processes only what the checkpoint does not cover.
	var reprocessed []string
	secondHandler := func(_ context.Context, obs registry.Observation) (Outcome, string, error) {
		reprocessed = append(reprocessed, obs.RawName)
		return OutcomeMatched, "", nil
	}
	second := NewRunner(secondHandler, dir, WithLogger(logging.Nop))
	summary, err := second.Run(context.Background(), units)
	require.NoError(t, err)

	assert.Equal(t, []string{"Agency 04", "Agency 05"}, reprocessed)
	assert.Equal(t, 4, summary.Resumed)
	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 5, summary.Matched)
	assert.Equal(t, 1, summary.Failed, "the recorded failure stays in the totals")
}

func TestRunnerCancellation(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	handler := func(context.Context, registry.Observation) (Outcome, string, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return OutcomeMatched, "", nil
	}

	r := NewRunner(handler, dir, WithLogger(logging.Nop))
	summary, err := r.Run(ctx, testUnits(10))

	assert.ErrorIs(t, err, errors.ErrCanceled)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, summary.Matched)

	// Progress was persisted on the way out.
	c, loadErr := LoadLatest(dir)
	require.NoError(t, loadErr)
	require.NotNil(t, c)
	assert.Equal(t, 2, c.ProcessedCount)
}

func TestRunnerCheckpointInterval(t *testing.T) {
	dir := t.TempDir()

	var sawMidRunCheckpoint bool
	handler := func(context.Context, registry.Observation) (Outcome, string, error) {
		if c, err := LoadLatest(dir); err == nil && c != nil {
			sawMidRunCheckpoint = true
		}
		// Spread units across distinct checkpoint file timestamps.
		time.Sleep(2 * time.Millisecond)
		return OutcomeMatched, "", nil
	}

	r := NewRunner(handler, dir, WithLogger(logging.Nop), WithCheckpointInterval(2))
	_, err := r.Run(context.Background(), testUnits(5))
	require.NoError(t, err)
	assert.True(t, sawMidRunCheckpoint, "interval checkpoints should be visible mid-run")
}

func TestRunnerRetriesRateLimitedUnits(t *testing.T) {
	dir := t.TempDir()

	attempts := 0
	handler := func(context.Context, registry.Observation) (Outcome, string, error) {
		attempts++
		if attempts < 3 {
			return OutcomeFailed, "", &errors.RateLimitError{Source: "api", RetryAfter: time.Millisecond}
		}
		return OutcomeMatched, "", nil
	}

	r := NewRunner(handler, dir,
		WithLogger(logging.Nop),
		WithRetryPolicy(RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}))

	summary, err := r.Run(context.Background(), testUnits(1))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 1, summary.Matched)
	assert.Zero(t, summary.Failed)
}

func TestSummaryString(t *testing.T) {
	s := Summary{Matched: 3, Ambiguous: 1, Unmatched: 2, Failed: 1, Total: 7, Resumed: 0}
	assert.Equal(t, "matched=3 ambiguous=1 unmatched=2 failed=1 (total=7, resumed past 0)", s.String())
}
