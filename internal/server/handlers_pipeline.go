package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/apply-assistant/internal/pipeline"
	"github.com/jonathan/apply-assistant/internal/server/middleware"
)

// handleRunPipeline triggers a full pipeline run for the authenticated user.
// The run executes synchronously; the response carries the run summary. An
// incomplete profile yields a 409 with the missing-requirement codes so the
// client can route the user back to onboarding.
func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	summary, err := s.runner.Run(r.Context(), userID)
	if err != nil {
		var incomplete *pipeline.OnboardingIncompleteError
		if errors.As(err, &incomplete) {
			s.jsonResponse(w, http.StatusConflict, map[string]any{
				"error":   "onboarding_incomplete",
				"message": incomplete.Error(),
				"missing": incomplete.Codes,
			})
			return
		}
		s.errorResponse(w, http.StatusBadGateway, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"postings_collected": summary.PostingsCollected,
		"matches_created":    summary.MatchesCreated,
		"drafts_generated":   summary.DraftsGenerated,
		"needs_review":       summary.NeedsReview,
		"failures":           summary.Failures,
	})
}
