package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/apply-assistant/internal/db"
)

func TestSortActionable_ScoreDescNullsLastCreationTiebreak(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mk := func(score *int, offset time.Duration) db.MatchView {
		return db.MatchView{Match: db.JobMatch{
			ID:        uuid.New(),
			FitScore:  score,
			Status:    db.StatusDrafted,
			CreatedAt: base.Add(offset),
		}}
	}

	// Created in order A, B, C, D with scores 90, 90, 70, null.
	a := mk(intPtr(90), 0)
	b := mk(intPtr(90), time.Minute)
	c := mk(intPtr(70), 2*time.Minute)
	d := mk(nil, 3*time.Minute)

	// Shuffle the input so the sort does the work.
	views := []db.MatchView{d, c, b, a}
	SortActionable(views)

	want := []uuid.UUID{a.Match.ID, b.Match.ID, c.Match.ID, d.Match.ID}
	for i, id := range want {
		if views[i].Match.ID != id {
			t.Fatalf("position %d: got match %s, want %s", i, views[i].Match.ID, id)
		}
	}
}

func TestSortActionable_AllUnscoredOrderedByCreation(t *testing.T) {
	base := time.Now()
	older := db.MatchView{Match: db.JobMatch{ID: uuid.New(), CreatedAt: base}}
	newer := db.MatchView{Match: db.JobMatch{ID: uuid.New(), CreatedAt: base.Add(time.Hour)}}

	views := []db.MatchView{newer, older}
	SortActionable(views)

	if views[0].Match.ID != older.Match.ID {
		t.Error("unscored matches should order oldest first")
	}
}

func TestCheckProfile(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name        string
		resumes     int
		prefs       *db.Preferences
		wantMissing []string
	}{
		{"nothing on file", 0, nil, []string{MissingResume, MissingPreferences}},
		{"resume but empty roles", 1, &db.Preferences{Roles: []string{}}, []string{MissingPreferences}},
		{"preferences but no resume", 0, &db.Preferences{Roles: []string{"backend"}}, []string{MissingResume}},
		{"complete", 1, &db.Preferences{Roles: []string{"backend"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.resumes[userID] = tt.resumes
			if tt.prefs != nil {
				store.prefs[userID] = tt.prefs
			}
			c := NewController(store)

			status, err := c.CheckProfile(ctx, userID)
			if err != nil {
				t.Fatalf("CheckProfile error = %v", err)
			}
			if status.Complete != (len(tt.wantMissing) == 0) {
				t.Errorf("Complete = %v, want %v", status.Complete, len(tt.wantMissing) == 0)
			}
			if len(status.Missing) != len(tt.wantMissing) {
				t.Fatalf("Missing = %v, want %v", status.Missing, tt.wantMissing)
			}
			for i := range tt.wantMissing {
				if status.Missing[i] != tt.wantMissing[i] {
					t.Errorf("Missing[%d] = %q, want %q", i, status.Missing[i], tt.wantMissing[i])
				}
			}
		})
	}
}
