package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonathan/apply-assistant/internal/db"
)

// Edit content limits. Exceeding them fails with ErrValidation before any
// remote call is made.
const (
	MaxCoverLetterRunes = 20000
	MaxAnswers          = 50
	MaxAnswerRunes      = 5000
)

// Controller mediates all user-driven mutations to a match/draft pair. It
// enforces the state machine, serializes in-flight mutations per match, and
// reconciles local view state with the store after each mutation.
type Controller struct {
	store Store

	// one in-flight mutation per match: a second mutation on the same match
	// queues behind the first instead of interleaving.
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

// NewController creates a controller over the given store.
func NewController(store Store) *Controller {
	return &Controller{store: store}
}

func (c *Controller) lock(matchID uuid.UUID) func() {
	v, _ := c.locks.LoadOrStore(matchID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// releaseLock drops the per-match mutex after a terminal transition so the
// map does not grow for the process lifetime. A queued mutation that raced
// the delete re-creates the entry and then fails the terminal-status check,
// so losing serialization here is harmless.
func (c *Controller) releaseLock(matchID uuid.UUID) {
	c.locks.Delete(matchID)
}

// LoadMatch fetches the match joined with its posting and draft. The draft
// may be absent; that is not an error. A match owned by another user is
// indistinguishable from a missing one.
func (c *Controller) LoadMatch(ctx context.Context, userID, matchID uuid.UUID) (*db.MatchView, error) {
	view, err := c.store.GetMatchView(ctx, userID, matchID)
	if err != nil {
		return nil, &ErrRemoteUnavailable{Op: "load match", Cause: err}
	}
	if view == nil {
		return nil, &ErrNotFound{MatchID: matchID}
	}
	return view, nil
}

// ListActionable returns the matches still awaiting a decision, in review
// order (see SortActionable).
func (c *Controller) ListActionable(ctx context.Context, userID uuid.UUID) ([]db.MatchView, error) {
	views, err := c.store.ListActionableMatches(ctx, userID)
	if err != nil {
		return nil, &ErrRemoteUnavailable{Op: "list matches", Cause: err}
	}
	return views, nil
}

// SaveEdit upserts the draft content for a non-terminal match. It never
// changes the match status, creates the draft lazily on first save, and is
// idempotent: saving identical content twice leaves exactly one draft row.
func (c *Controller) SaveEdit(ctx context.Context, userID, matchID uuid.UUID, coverLetter string, answers []db.Answer) (*db.ApplicationDraft, error) {
	if err := validateContent(coverLetter, answers); err != nil {
		return nil, err
	}

	unlock := c.lock(matchID)
	defer unlock()

	view, err := c.store.GetMatchView(ctx, userID, matchID)
	if err != nil {
		return nil, &ErrRemoteUnavailable{Op: "save edit", Cause: err}
	}
	if view == nil {
		return nil, &ErrNotFound{MatchID: matchID}
	}
	if view.Match.Status.IsTerminal() {
		return nil, &ErrInvalidTransition{MatchID: matchID, Status: view.Match.Status}
	}

	draft, err := c.store.UpsertDraft(ctx, matchID, coverLetter, answers)
	if err != nil {
		return nil, &ErrRemoteUnavailable{Op: "save edit", Cause: err}
	}
	return draft, nil
}

// Approve persists the final edited content, records the submission event
// snapshot, and flips the match to APPLIED. The content passed here wins over
// any previously saved draft, so an edit pending in the view is not lost when
// the user approves without a separate save. The store makes the event
// at-most-once, so a retry after a mid-flight failure cannot submit twice.
func (c *Controller) Approve(ctx context.Context, userID, matchID uuid.UUID, coverLetter string, answers []db.Answer) (*db.JobMatch, error) {
	if userID == uuid.Nil {
		return nil, &ErrNotAuthenticated{}
	}
	if err := validateContent(coverLetter, answers); err != nil {
		return nil, err
	}

	unlock := c.lock(matchID)
	defer unlock()

	view, err := c.store.GetMatchView(ctx, userID, matchID)
	if err != nil {
		return nil, &ErrRemoteUnavailable{Op: "approve", Cause: err}
	}
	if view == nil {
		return nil, &ErrNotFound{MatchID: matchID}
	}
	if view.Match.Status.IsTerminal() {
		return nil, &ErrInvalidTransition{MatchID: matchID, Status: view.Match.Status}
	}

	match, err := c.store.ApproveMatch(ctx, matchID, coverLetter, answers)
	if err != nil {
		if errors.Is(err, db.ErrMatchTerminal) {
			// Lost a race with another session; report the transition error
			// rather than pretending the approve happened.
			return nil, &ErrInvalidTransition{MatchID: matchID, Status: view.Match.Status}
		}
		return nil, &ErrRemoteUnavailable{Op: "approve", Cause: err}
	}
	c.releaseLock(matchID)
	return match, nil
}

// Skip flips a non-terminal match to SKIPPED, optionally recording a reason.
// Skipping is a status change, never a deletion.
func (c *Controller) Skip(ctx context.Context, userID, matchID uuid.UUID, reason string) (*db.JobMatch, error) {
	if userID == uuid.Nil {
		return nil, &ErrNotAuthenticated{}
	}

	unlock := c.lock(matchID)
	defer unlock()

	view, err := c.store.GetMatchView(ctx, userID, matchID)
	if err != nil {
		return nil, &ErrRemoteUnavailable{Op: "skip", Cause: err}
	}
	if view == nil {
		return nil, &ErrNotFound{MatchID: matchID}
	}
	if view.Match.Status.IsTerminal() {
		return nil, &ErrInvalidTransition{MatchID: matchID, Status: view.Match.Status}
	}

	match, err := c.store.SkipMatch(ctx, matchID, reason)
	if err != nil {
		if errors.Is(err, db.ErrMatchTerminal) {
			return nil, &ErrInvalidTransition{MatchID: matchID, Status: view.Match.Status}
		}
		return nil, &ErrRemoteUnavailable{Op: "skip", Cause: err}
	}
	c.releaseLock(matchID)
	return match, nil
}

func validateContent(coverLetter string, answers []db.Answer) error {
	if utf8.RuneCountInString(coverLetter) > MaxCoverLetterRunes {
		return &ErrValidation{Field: "cover_letter", Message: "exceeds maximum length"}
	}
	if len(answers) > MaxAnswers {
		return &ErrValidation{Field: "answers", Message: "too many answers"}
	}
	for i, a := range answers {
		if a.Question == "" {
			return &ErrValidation{Field: "answers", Message: "question text must not be empty"}
		}
		if utf8.RuneCountInString(a.Answer) > MaxAnswerRunes {
			return &ErrValidation{Field: "answers", Message: fmt.Sprintf("answer %d exceeds maximum length", i)}
		}
	}
	return nil
}
