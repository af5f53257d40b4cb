package batch

import (
	"context"
	"time"

	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/errors"
)

// RetryPolicy retries a single unit with bounded exponential backoff, but
// only on rate-limit signals. Any other failure is returned immediately so
// the batch can record it and continue.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first
	MaxAttempts int

	// BaseDelay is the backoff before the first retry
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff
	MaxDelay time.Duration
}

// DefaultRetryPolicy returns the standard bounded backoff policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: constants.MaxRetryAttempts,
		BaseDelay:   constants.RetryBackoff,
		MaxDelay:    constants.MaxRetryBackoff,
	}
}

// Do runs fn, retrying on rate-limit errors with exponential backoff until
// the attempts are exhausted or the context is canceled. Non-rate-limit
// errors return immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := p.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !errors.IsRateLimited(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		// Honor a server-provided retry-after when the error carries one.
		wait := delay
		var rle *errors.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > wait {
			wait = rle.RetryAfter
		}
		if p.MaxDelay > 0 && wait > p.MaxDelay {
			wait = p.MaxDelay
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.ErrCanceled
		case <-timer.C:
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}

	return err
}
