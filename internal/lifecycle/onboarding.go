package lifecycle

import (
	"context"

	"github.com/google/uuid"
)

// Missing-item names reported by ProfileStatus.
const (
	MissingResume      = "resume"
	MissingPreferences = "preferences"
)

// ProfileStatus is the derived onboarding state: complete means at least one
// resume on file and preferences with at least one role.
type ProfileStatus struct {
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing,omitempty"`
}

// CheckProfile computes the onboarding gate. The gate is advisory for the UI:
// approve and skip do not re-check it, because the pipeline trigger is the
// operation that actually requires completeness and fails with its own
// onboarding-incomplete condition.
func (c *Controller) CheckProfile(ctx context.Context, userID uuid.UUID) (*ProfileStatus, error) {
	count, err := c.store.CountResumes(ctx, userID)
	if err != nil {
		return nil, &ErrRemoteUnavailable{Op: "profile check", Cause: err}
	}
	prefs, err := c.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, &ErrRemoteUnavailable{Op: "profile check", Cause: err}
	}

	status := &ProfileStatus{}
	if count == 0 {
		status.Missing = append(status.Missing, MissingResume)
	}
	if prefs == nil || len(prefs.Roles) == 0 {
		status.Missing = append(status.Missing, MissingPreferences)
	}
	status.Complete = len(status.Missing) == 0
	return status, nil
}
