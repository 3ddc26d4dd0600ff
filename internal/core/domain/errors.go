package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown collator or decorator kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSearchUnavailable indicates the search engine is not configured.
	ErrSearchUnavailable = errors.New("search engine unavailable")

	// Registration Errors.

	// ErrInvalidRegistration indicates a collator or decorator registration
	// was rejected (empty type, non-positive interval, nil implementation).
	ErrInvalidRegistration = errors.New("invalid registration")

	// ErrInvalidDocument indicates a document is missing a required property.
	ErrInvalidDocument = errors.New("invalid document")

	// Cycle Errors.

	// ErrCollationFailed indicates the collator for a type returned an error.
	ErrCollationFailed = errors.New("collation failed")

	// ErrDecorationFailed indicates a decorator in the chain returned an error.
	ErrDecorationFailed = errors.New("decoration failed")

	// ErrCommitFailed indicates the index engine rejected a batch.
	ErrCommitFailed = errors.New("commit failed")

	// ErrCycleInProgress indicates a cycle for the type is already running.
	ErrCycleInProgress = errors.New("cycle in progress")

	// ErrCycleAbandoned indicates a cycle was cancelled before it could publish.
	ErrCycleAbandoned = errors.New("cycle abandoned")
)

// CycleStage names a step of a collate-decorate-commit cycle.
type CycleStage string

// Cycle stages in execution order.
const (
	StageCollate  CycleStage = "collate"
	StageDecorate CycleStage = "decorate"
	StageCommit   CycleStage = "commit"
)

// sentinel returns the stage's error kind.
func (s CycleStage) sentinel() error {
	switch s {
	case StageCollate:
		return ErrCollationFailed
	case StageDecorate:
		return ErrDecorationFailed
	case StageCommit:
		return ErrCommitFailed
	default:
		return ErrCycleAbandoned
	}
}

// CycleError reports a failed cycle with the offending type and cause.
// It matches both the stage sentinel and the cause with errors.Is.
type CycleError struct {
	Type  string
	Stage CycleStage
	Err   error
}

// NewCycleError wraps err as a failure of stage for docType.
func NewCycleError(docType string, stage CycleStage, err error) *CycleError {
	return &CycleError{Type: docType, Stage: stage, Err: err}
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s %q: %v: %v", e.Stage, e.Type, e.Stage.sentinel(), e.Err)
}

// Unwrap exposes the stage sentinel and the cause.
func (e *CycleError) Unwrap() []error {
	return []error{e.Stage.sentinel(), e.Err}
}
