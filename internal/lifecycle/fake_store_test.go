package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/apply-assistant/internal/db"
)

// fakeStore is an in-memory Store with the same semantics as the Postgres
// layer: guarded status updates, upsert-by-match drafts, at-most-once
// submission events.
type fakeStore struct {
	mu       sync.Mutex
	matches  map[uuid.UUID]*db.JobMatch
	postings map[uuid.UUID]db.JobPosting
	drafts   map[uuid.UUID]*db.ApplicationDraft // keyed by match ID
	events   map[uuid.UUID]db.SubmissionEvent   // keyed by match ID
	resumes  map[uuid.UUID]int
	prefs    map[uuid.UUID]*db.Preferences

	// failure injection
	failAll     error  // every method fails with this
	failApprove string // "", "before-commit", "after-commit"
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches:  make(map[uuid.UUID]*db.JobMatch),
		postings: make(map[uuid.UUID]db.JobPosting),
		drafts:   make(map[uuid.UUID]*db.ApplicationDraft),
		events:   make(map[uuid.UUID]db.SubmissionEvent),
		resumes:  make(map[uuid.UUID]int),
		prefs:    make(map[uuid.UUID]*db.Preferences),
	}
}

func (f *fakeStore) addMatch(userID uuid.UUID, status db.MatchStatus, score *int, created time.Time) *db.JobMatch {
	f.mu.Lock()
	defer f.mu.Unlock()

	posting := db.JobPosting{
		ID:      uuid.New(),
		Title:   "Backend Engineer",
		Company: "Acme",
		URL:     "https://jobs.example/" + uuid.NewString(),
	}
	f.postings[posting.ID] = posting

	m := &db.JobMatch{
		ID:        uuid.New(),
		UserID:    userID,
		PostingID: posting.ID,
		FitScore:  score,
		Status:    status,
		CreatedAt: created,
	}
	f.matches[m.ID] = m
	return m
}

// addDraft seeds a generated draft, as the drafting step would have written
// it, including its tailoring notes.
func (f *fakeStore) addDraft(matchID uuid.UUID, coverLetter string, notes *db.TailoringNotes) *db.ApplicationDraft {
	f.mu.Lock()
	defer f.mu.Unlock()

	d := &db.ApplicationDraft{
		ID:          uuid.New(),
		MatchID:     matchID,
		CoverLetter: coverLetter,
		Notes:       notes,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.drafts[matchID] = d
	return d
}

func (f *fakeStore) GetMatchView(_ context.Context, userID, matchID uuid.UUID) (*db.MatchView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}

	m, ok := f.matches[matchID]
	if !ok || m.UserID != userID {
		return nil, nil
	}
	view := &db.MatchView{Match: *m, Posting: f.postings[m.PostingID]}
	if d, ok := f.drafts[matchID]; ok {
		copied := *d
		view.Draft = &copied
	}
	return view, nil
}

func (f *fakeStore) ListActionableMatches(_ context.Context, userID uuid.UUID) ([]db.MatchView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}

	var views []db.MatchView
	for _, m := range f.matches {
		if m.UserID == userID && m.Status.IsActionable() {
			views = append(views, db.MatchView{Match: *m, Posting: f.postings[m.PostingID]})
		}
	}
	SortActionable(views)
	return views, nil
}

func (f *fakeStore) UpsertDraft(_ context.Context, matchID uuid.UUID, coverLetter string, answers []db.Answer) (*db.ApplicationDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	return f.upsertDraftLocked(matchID, coverLetter, answers), nil
}

func (f *fakeStore) upsertDraftLocked(matchID uuid.UUID, coverLetter string, answers []db.Answer) *db.ApplicationDraft {
	d, ok := f.drafts[matchID]
	if !ok {
		d = &db.ApplicationDraft{ID: uuid.New(), MatchID: matchID, CreatedAt: time.Now()}
		f.drafts[matchID] = d
	}
	d.CoverLetter = coverLetter
	d.Answers = answers
	d.UpdatedAt = time.Now()
	copied := *d
	return &copied
}

func (f *fakeStore) ApproveMatch(_ context.Context, matchID uuid.UUID, coverLetter string, answers []db.Answer) (*db.JobMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}

	m, ok := f.matches[matchID]
	if !ok || m.Status.IsTerminal() {
		return nil, db.ErrMatchTerminal
	}

	if f.failApprove == "before-commit" {
		f.failApprove = ""
		return nil, errors.New("connection reset before commit")
	}

	f.upsertDraftLocked(matchID, coverLetter, answers)
	if _, exists := f.events[matchID]; !exists {
		f.events[matchID] = db.SubmissionEvent{
			ID:          uuid.New(),
			MatchID:     matchID,
			CoverLetter: coverLetter,
			Answers:     answers,
			CreatedAt:   time.Now(),
		}
	}
	m.Status = db.StatusApplied

	if f.failApprove == "after-commit" {
		// Transaction committed but the response was lost on the wire.
		f.failApprove = ""
		return nil, errors.New("connection reset after commit")
	}

	copied := *m
	return &copied, nil
}

func (f *fakeStore) SkipMatch(_ context.Context, matchID uuid.UUID, reason string) (*db.JobMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}

	m, ok := f.matches[matchID]
	if !ok || m.Status.IsTerminal() {
		return nil, db.ErrMatchTerminal
	}
	m.Status = db.StatusSkipped
	copied := *m
	return &copied, nil
}

func (f *fakeStore) CountResumes(_ context.Context, userID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return 0, f.failAll
	}
	return f.resumes[userID], nil
}

func (f *fakeStore) GetPreferences(_ context.Context, userID uuid.UUID) (*db.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	p, ok := f.prefs[userID]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}
