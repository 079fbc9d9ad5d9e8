package model

import (
	"errors"
	"fmt"
)

// Validation errors. These are rejected before any state change.
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrBadRecurrence     = errors.New("malformed recurrence rule")
	ErrSelfLoop          = errors.New("dependency cannot point at itself")
	ErrEdgeIncomplete    = errors.New("dependency edge missing an endpoint")
	ErrDependencyCycle   = errors.New("dependency would create a cycle")
	ErrHalfWindow        = errors.New("planned start and end must be set together")
	ErrInvalidImportance = errors.New("importance must be between 0 and 100")

	ErrTaskNotFound = errors.New("task not found")
	ErrEdgeNotFound = errors.New("dependency edge not found")

	ErrTimerRunning = errors.New("a timer is already running")
	ErrNoTimer      = errors.New("no timer is running")

	// ErrForeignEvent means a remote event slated for deletion does
	// not carry our ownership marker. Deleting it would destroy
	// somebody else's data, so the reconciler refuses.
	ErrForeignEvent = errors.New("remote event is not owned by taskweave")
)

// BackendError wraps a failure of the backend data service. The store
// rolls back its optimistic state when one of these surfaces.
type BackendError struct {
	Op  string // "insert task", "delete edge", ...
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// SyncError wraps a failed remote calendar call. Sync is best-effort:
// these are reported, never rolled back from.
type SyncError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("calendar sync: %s for task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// IntegrityError marks a failed deletion safety check. The remote
// delete is aborted; the triggering task mutation stays committed.
type IntegrityError struct {
	EventID string
	Err     error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity: event %s: %v", e.EventID, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }
