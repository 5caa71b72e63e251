// Package errors defines the sentinel errors shared across the engine and a
// wrapping PipelineError that carries the stage where a fatal failure
// happened. Recoverable problems are reported as warnings, never as errors;
// everything here is reserved for failures that abort a run.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAdapters is returned when a build is requested with no
	// configured sources.
	ErrNoAdapters = errors.New("no adapters configured")

	// ErrZoneInvariant marks a timestamp reaching dedup/merge in a zone
	// other than the configured target zone. This is a programming error,
	// not a data problem, and it fails the run loudly.
	ErrZoneInvariant = errors.New("timestamp not in target zone")

	// ErrAdapterTimeout marks an adapter that exceeded its per-call budget.
	ErrAdapterTimeout = errors.New("adapter timed out")

	ErrInvalidConfig = errors.New("invalid configuration")
	ErrStoreFailure  = errors.New("store operation failed")
)

// PipelineError wraps a sentinel with the stage that produced it.
type PipelineError struct {
	Stage   string
	Err     error
	Message string
}

func (e *PipelineError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Err.Error(), e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// New builds a PipelineError for the given stage.
func New(stage string, sentinel error, message string) *PipelineError {
	return &PipelineError{Stage: stage, Err: sentinel, Message: message}
}

// Newf builds a PipelineError with a formatted message.
func Newf(stage string, sentinel error, format string, args ...any) *PipelineError {
	return &PipelineError{Stage: stage, Err: sentinel, Message: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err is one of the invariant violations that must
// abort a run rather than degrade it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrZoneInvariant) || errors.Is(err, ErrInvalidConfig)
}
