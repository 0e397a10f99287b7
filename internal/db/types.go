package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MatchStatus is the lifecycle status of a job match.
type MatchStatus string

// Match status values. APPLIED, SUBMITTED and SKIPPED are terminal.
const (
	StatusDrafted     MatchStatus = "DRAFTED"
	StatusNeedsReview MatchStatus = "NEEDS_REVIEW"
	StatusApplied     MatchStatus = "APPLIED"
	StatusSubmitted   MatchStatus = "SUBMITTED"
	StatusSkipped     MatchStatus = "SKIPPED"
)

// IsTerminal reports whether no further transitions or content edits are
// permitted from this status.
func (s MatchStatus) IsTerminal() bool {
	switch s {
	case StatusApplied, StatusSubmitted, StatusSkipped:
		return true
	}
	return false
}

// IsActionable reports whether the match still requires a user decision.
func (s MatchStatus) IsActionable() bool {
	return s == StatusDrafted || s == StatusNeedsReview
}

// Valid reports whether s is a known status value.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusDrafted, StatusNeedsReview, StatusApplied, StatusSubmitted, StatusSkipped:
		return true
	}
	return false
}

// JobPosting is an immutable collected job posting.
type JobPosting struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Source      string    `json:"source,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CategoryScore is a per-category sub-score inside FitReasons.
type CategoryScore struct {
	Category string `json:"category"`
	Score    int    `json:"score"`
}

// FitReasons is the structured explanation attached to a fit score.
// Raw keeps the stored JSON verbatim so fields this version does not know
// about survive a round trip.
type FitReasons struct {
	Categories []CategoryScore `json:"categories,omitempty"`
	Strengths  []string        `json:"strengths,omitempty"`
	Gaps       []string        `json:"gaps,omitempty"`
	Summary    string          `json:"summary,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// JobMatch links a user to a posting with a scored fit and a lifecycle status.
// FitScore is nil until the scoring step has run; once set it is read-only
// from the application's perspective.
type JobMatch struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	PostingID uuid.UUID   `json:"posting_id"`
	FitScore  *int        `json:"fit_score,omitempty"`
	Reasons   *FitReasons `json:"reasons,omitempty"`
	Status    MatchStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Answer is one question/answer pair in a draft. Answers are stored as an
// ordered array so question order is preserved across saves.
type Answer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// TailoringNotes carries generation metadata on a draft. Non-empty Issues at
// draft-creation time force the match into NEEDS_REVIEW.
type TailoringNotes struct {
	GeneratedAt time.Time `json:"generated_at"`
	Confidence  float64   `json:"confidence"`
	Issues      []string  `json:"issues,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// ApplicationDraft is the editable cover letter and answer set for one match.
// Zero or one draft exists per match.
type ApplicationDraft struct {
	ID          uuid.UUID       `json:"id"`
	MatchID     uuid.UUID       `json:"match_id"`
	CoverLetter string          `json:"cover_letter"`
	Answers     []Answer        `json:"answers,omitempty"`
	Notes       *TailoringNotes `json:"tailoring_notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SubmissionEvent is the append-only snapshot recorded when a match is
// approved. It is written exactly once per match and never read back by the
// lifecycle controller.
type SubmissionEvent struct {
	ID          uuid.UUID `json:"id"`
	MatchID     uuid.UUID `json:"match_id"`
	CoverLetter string    `json:"cover_letter"`
	Answers     []Answer  `json:"answers,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MatchView is the joined read model served to the review UI: the match, its
// posting, and the draft if one exists yet.
type MatchView struct {
	Match   JobMatch          `json:"match"`
	Posting JobPosting        `json:"posting"`
	Draft   *ApplicationDraft `json:"draft,omitempty"`
}
