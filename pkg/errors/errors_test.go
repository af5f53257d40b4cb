package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSentinelMatching(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{
			name:  "validation error",
			err:   NewValidationError("3540", "budgets.2024", "negative amount"),
			check: IsValidation,
		},
		{
			name:  "ambiguous match error",
			err:   NewAmbiguousMatchError("Forestry", []string{"3540", "3541"}),
			check: IsAmbiguous,
		},
		{
			name:  "unmatched error",
			err:   &UnmatchedError{Name: "Bureau of Gemology", BestScore: 0.41},
			check: IsUnmatched,
		},
		{
			name:  "rate limit error",
			err:   &RateLimitError{Source: "api", RetryAfter: time.Second},
			check: IsRateLimited,
		},
		{
			name:  "write error",
			err:   NewWriteError("registry.json", "replace", true, New("disk full")),
			check: IsWriteFailed,
		},
		{
			name:  "not found error",
			err:   &NotFoundError{Resource: "record", ID: "9999"},
			check: IsNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))

			// Matching survives wrapping.
			assert.True(t, tt.check(fmt.Errorf("outer: %w", tt.err)))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	verr := NewValidationError("3540", "orgCode", "protected field may not be mutated")
	assert.Contains(t, verr.Error(), "3540")
	assert.Contains(t, verr.Error(), "orgCode")

	aerr := NewAmbiguousMatchError("Forestry", []string{"3540", "3541"})
	assert.Contains(t, aerr.Error(), "3540, 3541")

	uerr := &UnmatchedError{Name: "X", BestScore: 0.41}
	assert.Contains(t, uerr.Error(), "0.41")

	werr := NewWriteError("registry.json", "replace", true, New("disk full"))
	assert.Contains(t, werr.Error(), "restored from backup")
}

func TestUnwrap(t *testing.T) {
	inner := New("disk full")
	werr := NewWriteError("registry.json", "stage", false, inner)
	assert.ErrorIs(t, werr, inner)

	rle := &RateLimitError{Source: "api", Err: inner}
	assert.ErrorIs(t, rle, inner)
}

func TestWrapHelpersNilPassthrough(t *testing.T) {
	assert.NoError(t, WrapIO("read", "x", nil))
	assert.NoError(t, WrapParse("json", "x", nil))
	assert.NoError(t, WrapValidation("rec", "field", nil))
}
