package lifecycle

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/apply-assistant/internal/db"
)

func intPtr(n int) *int { return &n }

func TestMutations_TerminalMatchFailsWithInvalidTransition(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	for _, status := range []db.MatchStatus{db.StatusApplied, db.StatusSubmitted, db.StatusSkipped} {
		t.Run(string(status), func(t *testing.T) {
			store := newFakeStore()
			c := NewController(store)
			m := store.addMatch(userID, status, intPtr(80), time.Now())

			if _, err := c.SaveEdit(ctx, userID, m.ID, "letter", nil); !isInvalidTransition(err) {
				t.Errorf("SaveEdit on %s: got %v, want ErrInvalidTransition", status, err)
			}
			if _, err := c.Approve(ctx, userID, m.ID, "letter", nil); !isInvalidTransition(err) {
				t.Errorf("Approve on %s: got %v, want ErrInvalidTransition", status, err)
			}
			if _, err := c.Skip(ctx, userID, m.ID, "no"); !isInvalidTransition(err) {
				t.Errorf("Skip on %s: got %v, want ErrInvalidTransition", status, err)
			}
		})
	}
}

func isInvalidTransition(err error) bool {
	_, ok := err.(*ErrInvalidTransition)
	return ok
}

func TestSaveEdit_IdempotentUpsert(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(userID, db.StatusDrafted, intPtr(70), time.Now())

	answers := []db.Answer{{Question: "Why us?", Answer: "Because."}}

	first, err := c.SaveEdit(ctx, userID, m.ID, "dear team", answers)
	if err != nil {
		t.Fatalf("first SaveEdit error = %v", err)
	}
	second, err := c.SaveEdit(ctx, userID, m.ID, "dear team", answers)
	if err != nil {
		t.Fatalf("second SaveEdit error = %v", err)
	}

	if first.ID != second.ID {
		t.Error("repeated save created a second draft row")
	}
	if len(store.drafts) != 1 {
		t.Errorf("draft rows = %d, want 1", len(store.drafts))
	}
}

func TestSaveEdit_DoesNotChangeStatus(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(userID, db.StatusNeedsReview, intPtr(55), time.Now())

	if _, err := c.SaveEdit(ctx, userID, m.ID, "edited", nil); err != nil {
		t.Fatalf("SaveEdit error = %v", err)
	}

	view, err := c.LoadMatch(ctx, userID, m.ID)
	if err != nil {
		t.Fatalf("LoadMatch error = %v", err)
	}
	if view.Match.Status != db.StatusNeedsReview {
		t.Errorf("status = %s, want NEEDS_REVIEW", view.Match.Status)
	}
}

func TestSaveEdit_PreservesTailoringNotes(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(userID, db.StatusNeedsReview, intPtr(40), time.Now())
	store.addDraft(m.ID, "generated letter", &db.TailoringNotes{
		GeneratedAt: time.Now(),
		Confidence:  0.3,
		Issues:      []string{"posting mentions clearance requirement"},
	})

	if _, err := c.SaveEdit(ctx, userID, m.ID, "edited letter", nil); err != nil {
		t.Fatalf("SaveEdit error = %v", err)
	}

	view, err := c.LoadMatch(ctx, userID, m.ID)
	if err != nil {
		t.Fatalf("LoadMatch error = %v", err)
	}
	if view.Draft == nil {
		t.Fatal("draft missing after save")
	}
	if view.Draft.CoverLetter != "edited letter" {
		t.Errorf("cover letter = %q, want the edited content", view.Draft.CoverLetter)
	}
	if view.Draft.Notes == nil {
		t.Fatal("tailoring notes dropped by save")
	}
	if len(view.Draft.Notes.Issues) != 1 ||
		view.Draft.Notes.Issues[0] != "posting mentions clearance requirement" {
		t.Errorf("issues = %v, want the generation-time flag intact", view.Draft.Notes.Issues)
	}
}

func TestTerminalTransitionReleasesMatchLock(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)

	approved := store.addMatch(userID, db.StatusDrafted, intPtr(80), time.Now())
	skipped := store.addMatch(userID, db.StatusNeedsReview, nil, time.Now())
	edited := store.addMatch(userID, db.StatusDrafted, intPtr(60), time.Now())

	if _, err := c.Approve(ctx, userID, approved.ID, "letter", nil); err != nil {
		t.Fatalf("Approve error = %v", err)
	}
	if _, err := c.Skip(ctx, userID, skipped.ID, ""); err != nil {
		t.Fatalf("Skip error = %v", err)
	}
	if _, err := c.SaveEdit(ctx, userID, edited.ID, "letter", nil); err != nil {
		t.Fatalf("SaveEdit error = %v", err)
	}

	if _, held := c.locks.Load(approved.ID); held {
		t.Error("lock entry kept after approve")
	}
	if _, held := c.locks.Load(skipped.ID); held {
		t.Error("lock entry kept after skip")
	}
	if _, held := c.locks.Load(edited.ID); !held {
		t.Error("lock entry dropped for a still-actionable match")
	}
}

func TestSaveEdit_CreatesDraftLazily(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(userID, db.StatusDrafted, nil, time.Now())

	view, err := c.LoadMatch(ctx, userID, m.ID)
	if err != nil {
		t.Fatalf("LoadMatch error = %v", err)
	}
	if view.Draft != nil {
		t.Fatal("expected no draft before first save")
	}

	draft, err := c.SaveEdit(ctx, userID, m.ID, "first save", nil)
	if err != nil {
		t.Fatalf("SaveEdit error = %v", err)
	}
	if draft.MatchID != m.ID {
		t.Error("draft not bound to the match")
	}
}

func TestLoadMatch_NotFoundAndWrongOwner(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(owner, db.StatusDrafted, nil, time.Now())

	if _, err := c.LoadMatch(ctx, owner, uuid.New()); !isNotFound(err) {
		t.Errorf("missing match: got %v, want ErrNotFound", err)
	}
	if _, err := c.LoadMatch(ctx, stranger, m.ID); !isNotFound(err) {
		t.Errorf("foreign match: got %v, want ErrNotFound", err)
	}
}

func isNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

func TestApprove_PersistsPendingEditExactlyOnce(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(userID, db.StatusDrafted, intPtr(92), time.Now())

	// Generated draft exists with the original letter.
	store.drafts[m.ID] = &db.ApplicationDraft{
		ID: uuid.New(), MatchID: m.ID, CoverLetter: "original draft",
	}

	if _, err := c.SaveEdit(ctx, userID, m.ID, "edited once", nil); err != nil {
		t.Fatalf("SaveEdit error = %v", err)
	}

	match, err := c.Approve(ctx, userID, m.ID, "edited twice, approved", nil)
	if err != nil {
		t.Fatalf("Approve error = %v", err)
	}
	if match.Status != db.StatusApplied {
		t.Errorf("status = %s, want APPLIED", match.Status)
	}

	if got := store.drafts[m.ID].CoverLetter; got != "edited twice, approved" {
		t.Errorf("stored cover letter = %q, want the approved text", got)
	}
	ev, ok := store.events[m.ID]
	if !ok {
		t.Fatal("no submission event recorded")
	}
	if ev.CoverLetter != "edited twice, approved" {
		t.Errorf("event snapshot = %q, want the approved text", ev.CoverLetter)
	}
	if len(store.events) != 1 {
		t.Errorf("submission events = %d, want 1", len(store.events))
	}
}

func TestApprove_RetryAfterFailureIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("failure before commit", func(t *testing.T) {
		store := newFakeStore()
		c := NewController(store)
		m := store.addMatch(userID, db.StatusDrafted, intPtr(88), time.Now())
		store.failApprove = "before-commit"

		if _, err := c.Approve(ctx, userID, m.ID, "letter", nil); err == nil {
			t.Fatal("expected first approve to fail")
		}
		if len(store.events) != 0 {
			t.Fatal("failed approve must not leave a submission event")
		}

		// Retry succeeds and records exactly one event.
		if _, err := c.Approve(ctx, userID, m.ID, "letter", nil); err != nil {
			t.Fatalf("retry error = %v", err)
		}
		if len(store.events) != 1 {
			t.Errorf("submission events = %d, want 1", len(store.events))
		}
	})

	t.Run("failure after commit", func(t *testing.T) {
		store := newFakeStore()
		c := NewController(store)
		m := store.addMatch(userID, db.StatusDrafted, intPtr(88), time.Now())
		store.failApprove = "after-commit"

		if _, err := c.Approve(ctx, userID, m.ID, "letter", nil); err == nil {
			t.Fatal("expected first approve to fail")
		}

		// The commit landed; the retry must surface InvalidTransition, not
		// record a second event.
		if _, err := c.Approve(ctx, userID, m.ID, "letter", nil); !isInvalidTransition(err) {
			t.Errorf("retry: got %v, want ErrInvalidTransition", err)
		}
		if len(store.events) != 1 {
			t.Errorf("submission events = %d, want 1", len(store.events))
		}
	})
}

func TestApprove_RequiresAuthentication(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(uuid.New(), db.StatusDrafted, nil, time.Now())

	if _, err := c.Approve(ctx, uuid.Nil, m.ID, "letter", nil); !isNotAuthenticated(err) {
		t.Errorf("got %v, want ErrNotAuthenticated", err)
	}
	if _, err := c.Skip(ctx, uuid.Nil, m.ID, ""); !isNotAuthenticated(err) {
		t.Errorf("got %v, want ErrNotAuthenticated", err)
	}
}

func isNotAuthenticated(err error) bool {
	_, ok := err.(*ErrNotAuthenticated)
	return ok
}

func TestSkip_RemovesMatchFromActionableList(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(userID, db.StatusNeedsReview, intPtr(64), time.Now())

	match, err := c.Skip(ctx, userID, m.ID, "salary below range")
	if err != nil {
		t.Fatalf("Skip error = %v", err)
	}
	if match.Status != db.StatusSkipped {
		t.Errorf("status = %s, want SKIPPED", match.Status)
	}

	views, err := c.ListActionable(ctx, userID)
	if err != nil {
		t.Fatalf("ListActionable error = %v", err)
	}
	for _, v := range views {
		if v.Match.ID == m.ID {
			t.Error("skipped match still in actionable list")
		}
	}
}

func TestMutations_StoreFailureSurfacesAsRemoteUnavailable(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(userID, db.StatusDrafted, nil, time.Now())

	store.failAll = context.DeadlineExceeded

	if _, err := c.SaveEdit(ctx, userID, m.ID, "x", nil); !isRemoteUnavailable(err) {
		t.Errorf("SaveEdit: got %v, want ErrRemoteUnavailable", err)
	}
	if _, err := c.LoadMatch(ctx, userID, m.ID); !isRemoteUnavailable(err) {
		t.Errorf("LoadMatch: got %v, want ErrRemoteUnavailable", err)
	}
}

func isRemoteUnavailable(err error) bool {
	_, ok := err.(*ErrRemoteUnavailable)
	return ok
}

func TestValidation_RejectsOversizedAndMalformedContent(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(userID, db.StatusDrafted, nil, time.Now())

	long := strings.Repeat("a", MaxCoverLetterRunes+1)
	if _, err := c.SaveEdit(ctx, userID, m.ID, long, nil); !isValidation(err) {
		t.Errorf("oversized letter: got %v, want ErrValidation", err)
	}

	empty := []db.Answer{{Question: "", Answer: "hi"}}
	if _, err := c.SaveEdit(ctx, userID, m.ID, "ok", empty); !isValidation(err) {
		t.Errorf("empty question: got %v, want ErrValidation", err)
	}

	// Validation failures must not touch the store.
	if len(store.drafts) != 0 {
		t.Error("rejected edit still wrote a draft")
	}
}

func isValidation(err error) bool {
	_, ok := err.(*ErrValidation)
	return ok
}

func TestConcurrentSaves_SerializePerMatch(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	store := newFakeStore()
	c := NewController(store)
	m := store.addMatch(userID, db.StatusDrafted, nil, time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.SaveEdit(ctx, userID, m.ID, "concurrent edit", nil)
		}()
	}
	wg.Wait()

	if len(store.drafts) != 1 {
		t.Errorf("draft rows = %d, want 1", len(store.drafts))
	}
}
