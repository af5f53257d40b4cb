// Package errors provides custom error types for the agencymap engine.
// These errors enable programmatic error checking across the reconcile
// pipeline: per-unit failures that a batch run records and continues past,
// versus registry-level failures that abort the run.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
// It's an alias for the standard library errors.Is.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
// It's an alias for the standard library errors.As.
var As = errors.As

// Common sentinel errors for the agencymap engine
var (
	// ErrNotFound indicates that a requested record was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnmatched indicates that an external name resolved to no record
	ErrUnmatched = errors.New("unmatched")

	// ErrAmbiguous indicates that a name matched more than one record
	ErrAmbiguous = errors.New("ambiguous match")

	// ErrProtected indicates an attempt to mutate a protected field
	ErrProtected = errors.New("protected field")

	// ErrRateLimited indicates that an external source rate limit was hit
	ErrRateLimited = errors.New("rate limited")

	// ErrWriteFailed indicates a registry write failed and was rolled back
	ErrWriteFailed = errors.New("write failed")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// ValidationError represents a validation failure in a registry record
// or change-set. A unit hitting a ValidationError is aborted whole; it is
// never partially applied.
type ValidationError struct {
	Record  string
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	switch {
	case e.Record != "" && e.Field != "":
		return fmt.Sprintf("validation failed for %s field %s: %s", e.Record, e.Field, e.Message)
	case e.Field != "":
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	default:
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(record, field, message string) *ValidationError {
	return &ValidationError{Record: record, Field: field, Message: message}
}

// AmbiguousMatchError reports a name that exceeded the acceptance threshold
// for more than one registry record. It is always surfaced to the caller and
// never auto-resolved.
type AmbiguousMatchError struct {
	Name       string
	Candidates []string
}

// Error implements the error interface
func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous match for %q: candidates %s", e.Name, strings.Join(e.Candidates, ", "))
}

// Is implements errors.Is support
func (e *AmbiguousMatchError) Is(target error) bool {
	return target == ErrAmbiguous
}

// NewAmbiguousMatchError creates a new AmbiguousMatchError
func NewAmbiguousMatchError(name string, candidates []string) *AmbiguousMatchError {
	return &AmbiguousMatchError{Name: name, Candidates: candidates}
}

// UnmatchedError reports an external name that resolved to no registry
// record. The batch records the unit as failed and continues.
type UnmatchedError struct {
	Name      string
	BestScore float64
}

// Error implements the error interface
func (e *UnmatchedError) Error() string {
	if e.BestScore > 0 {
		return fmt.Sprintf("no match for %q (best score %.2f below threshold)", e.Name, e.BestScore)
	}
	return fmt.Sprintf("no match for %q", e.Name)
}

// Is implements errors.Is support
func (e *UnmatchedError) Is(target error) bool {
	return target == ErrUnmatched
}

// RateLimitError indicates an external source signaled a rate limit.
// The affected unit is retried with bounded exponential backoff.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by %s, retry after %s", e.Source, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited by %s", e.Source)
}

// Unwrap implements errors.Unwrap
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// WriteError represents a failed registry write. The on-disk registry has
// been restored from backup; the run must abort because the shared
// resource's integrity is at risk.
type WriteError struct {
	Path     string
	Stage    string // "backup", "stage", "verify", "replace", "restore"
	Restored bool
	Err      error
}

// Error implements the error interface
func (e *WriteError) Error() string {
	msg := fmt.Sprintf("registry write failed at %s stage for %s: %v", e.Stage, e.Path, e.Err)
	if e.Restored {
		msg += " (restored from backup)"
	}
	return msg
}

// Unwrap implements errors.Unwrap
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}

// NewWriteError creates a new WriteError
func NewWriteError(path, stage string, restored bool, err error) *WriteError {
	return &WriteError{Path: path, Stage: stage, Restored: restored, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "csv", "text"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("%s parse error in %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s parse error in %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// IOError represents an error during file operations
type IOError struct {
	Operation string // "read", "write", "create", "rename", "remove"
	Path      string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("IO error during %s: %v", e.Operation, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NotFoundError represents an error when a record is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnmatched checks if an error is an unmatched error
func IsUnmatched(err error) bool {
	return errors.Is(err, ErrUnmatched)
}

// IsAmbiguous checks if an error is an ambiguous match error
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrAmbiguous)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsWriteFailed checks if an error is a registry write failure
func IsWriteFailed(err error) bool {
	return errors.Is(err, ErrWriteFailed)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapValidation wraps an error as a ValidationError
func WrapValidation(record, field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Record: record, Field: field, Message: err.Error()}
}
