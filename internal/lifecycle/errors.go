// Package lifecycle implements the job-match lifecycle controller: the state
// machine that mediates every user-visible mutation of a match/draft pair.
package lifecycle

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/apply-assistant/internal/db"
)

// ErrNotFound indicates the match does not exist or is not owned by the
// calling user.
type ErrNotFound struct {
	MatchID uuid.UUID
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("match not found: %s", e.MatchID)
}

// ErrNotAuthenticated indicates there is no valid session for the mutation.
type ErrNotAuthenticated struct{}

func (e *ErrNotAuthenticated) Error() string {
	return "not authenticated"
}

// ErrInvalidTransition indicates a mutation was attempted on a match in a
// terminal status. Terminal matches fail loudly, never silently succeed.
type ErrInvalidTransition struct {
	MatchID uuid.UUID
	Status  db.MatchStatus
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid transition: match %s is %s", e.MatchID, e.Status)
}

// ErrRemoteUnavailable indicates the store or gateway could not be reached or
// timed out. Always retryable.
type ErrRemoteUnavailable struct {
	Op    string
	Cause error
}

func (e *ErrRemoteUnavailable) Error() string {
	return fmt.Sprintf("remote unavailable during %s: %v", e.Op, e.Cause)
}

func (e *ErrRemoteUnavailable) Unwrap() error {
	return e.Cause
}

// ErrValidation indicates malformed edit content.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}
