package core

import (
	"errors"
	"fmt"
)

var (
	// ErrTurnAborted signals that a turn was cancelled after the memory
	// append but before fusion completed. The append is not rolled back;
	// no partial ContextBundle is returned.
	ErrTurnAborted = errors.New("turn aborted")

	// ErrConsolidationDeferred signals that compression could not find a
	// safe merge target for a record. The record is retained unmodified and
	// retried next cycle; this is never escalated.
	ErrConsolidationDeferred = errors.New("consolidation deferred: no safe merge target")

	// ErrNoBackend signals that reply generation was requested without a
	// configured text-generation backend.
	ErrNoBackend = errors.New("no generation backend configured")
)

// InvalidAffectKeyError reports an emotion name outside the engine's registry.
// Unknown keys are rejected rather than silently ignored, since silent drops
// corrupt emotional continuity.
type InvalidAffectKeyError struct {
	Key string
}

func (e *InvalidAffectKeyError) Error() string {
	return fmt.Sprintf("invalid affect key %q", e.Key)
}

// CapacityError reports a breach of the short-term window's hard bound. It
// indicates a bug in the engine, not a recoverable condition: the offending
// operation is aborted rather than corrupting the window.
type CapacityError struct {
	Capacity int
	Size     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("short-term capacity violated: %d entries, capacity %d", e.Size, e.Capacity)
}

// CanonViolationError wraps an advisory guard violation as an error for
// callers that want errors.As ergonomics. Recoverable: the caller decides
// whether to suppress or rephrase.
type CanonViolationError struct {
	Result GuardResult
}

func (e *CanonViolationError) Error() string {
	return fmt.Sprintf("canon violation on %q: expected %q, candidate %q",
		e.Result.Key, e.Result.Expected, e.Result.Candidate)
}
