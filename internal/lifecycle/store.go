package lifecycle

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonathan/apply-assistant/internal/db"
)

// Store is the persistence surface the controller depends on. *db.DB
// implements it; tests inject an in-memory fake. The remote store is the
// single source of truth: the controller holds no durable cache.
type Store interface {
	// GetMatchView returns nil without error when the match does not exist
	// or is not owned by userID.
	GetMatchView(ctx context.Context, userID, matchID uuid.UUID) (*db.MatchView, error)

	// ListActionableMatches returns DRAFTED/NEEDS_REVIEW matches ordered by
	// fit score descending (nulls last), creation time ascending.
	ListActionableMatches(ctx context.Context, userID uuid.UUID) ([]db.MatchView, error)

	// UpsertDraft writes draft content keyed by match; repeated identical
	// saves collapse onto one row.
	UpsertDraft(ctx context.Context, matchID uuid.UUID, coverLetter string, answers []db.Answer) (*db.ApplicationDraft, error)

	// ApproveMatch atomically persists content, records the submission event
	// at most once, and flips the status; returns db.ErrMatchTerminal when
	// the match is already terminal.
	ApproveMatch(ctx context.Context, matchID uuid.UUID, coverLetter string, answers []db.Answer) (*db.JobMatch, error)

	// SkipMatch flips a non-terminal match to SKIPPED with an audit reason;
	// returns db.ErrMatchTerminal when already terminal.
	SkipMatch(ctx context.Context, matchID uuid.UUID, reason string) (*db.JobMatch, error)

	CountResumes(ctx context.Context, userID uuid.UUID) (int, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*db.Preferences, error)
}
