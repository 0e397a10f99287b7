package lifecycle

import (
	"sort"

	"github.com/jonathan/apply-assistant/internal/db"
)

// SortActionable orders matches for review: fit score descending, unscored
// matches last, ties broken by creation time ascending so earlier-collected
// postings surface first among equal scores. The sort is stable.
//
// The SQL list query applies the same order; this helper exists so callers
// holding an in-memory working copy (and tests) agree with it.
func SortActionable(views []db.MatchView) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].Match, views[j].Match
		switch {
		case a.FitScore == nil && b.FitScore == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.FitScore == nil:
			return false
		case b.FitScore == nil:
			return true
		case *a.FitScore != *b.FitScore:
			return *a.FitScore > *b.FitScore
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}
