// Package constants defines shared tuning values used across the agencymap
// engine. The matching thresholds are empirically tuned defaults; callers
// can override them per component, these are only the fallbacks.
package constants

import "time"

// Matching constants define the fuzzy matching defaults.
const (
	// AcceptThreshold is the minimum fuzzy score accepted as a match
	AcceptThreshold = 0.80

	// AutoApproveThreshold is the score at or above which the automated
	// approval policy accepts a change-set without a human prompt
	AutoApproveThreshold = 0.95

	// SubstringBoost is the bounded boost applied on substring containment
	SubstringBoost = 0.5

	// LengthWeight is the weight of the length-similarity penalty in the
	// blended similarity score
	LengthWeight = 0.3

	// MaxVariations caps the surface forms generated for one name
	MaxVariations = 30
)

// Retry constants define the backoff behavior for rate-limited units.
const (
	// MaxRetryAttempts is the number of attempts for a rate-limited unit
	MaxRetryAttempts = 5

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// Batch constants define checkpointing defaults.
const (
	// CheckpointInterval is how many units are processed between
	// checkpoint writes
	CheckpointInterval = 25
)

// File permission constants define standard Unix file permissions.
const (
	// FilePerm is the permission for registry, backup, and checkpoint files
	FilePerm = 0o644

	// DirPerm is the permission for created directories
	DirPerm = 0o755
)

// File suffix constants name the staging files next to the registry.
const (
	// BackupSuffix is appended to the registry path for the pre-write backup
	BackupSuffix = ".backup"

	// TempSuffix is appended to the registry path for the atomic-replace
	// staging file
	TempSuffix = ".temp"
)
