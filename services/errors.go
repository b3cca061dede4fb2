package services

import "fmt"

// Error taxonomy for the core. Controllers translate these to HTTP statuses;
// nothing else in the repo invents its own failure categories.

// ValidationError reports malformed input. The caller can correct the input
// and retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AuthorizationError reports that the acting user lacks privilege. Never
// retried.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// NotFoundError reports an unknown id.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NotActionableError reports that the task exists but the requested
// transition is illegal in its current state or outside its availability
// window.
type NotActionableError struct {
	Reason string
}

func (e *NotActionableError) Error() string {
	return e.Reason
}

// ConflictError reports a failed optimistic-concurrency precondition: the
// persisted status no longer matches what the caller saw. Reload and retry.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// PersistenceError reports a storage collaborator failure that survived the
// retry budget. Any optimistic local mutation has been rolled back by the
// time this is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
