package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/apply-assistant/internal/db"
	"github.com/jonathan/apply-assistant/internal/server/middleware"
	"github.com/jonathan/apply-assistant/internal/types"
)

// matchRequestIDs pulls the authenticated user and the match path parameter.
func (s *Server) matchRequestIDs(w http.ResponseWriter, r *http.Request) (userID, matchID uuid.UUID, ok bool) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	matchID, err = uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid match ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, matchID, true
}

// mutationContext detaches the handler from the request context so a client
// disconnect cannot abort a mutation mid-flight.
func mutationContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), mutationTimeout)
}

// handleListMatches returns the user's actionable matches in review order.
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	views, err := s.controller.ListActionable(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"matches": views})
}

// handleGetMatch returns one match joined with its posting and draft.
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	userID, matchID, ok := s.matchRequestIDs(w, r)
	if !ok {
		return
	}

	view, err := s.controller.LoadMatch(r.Context(), userID, matchID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, view)
}

// handleSaveDraft upserts the draft content for a match.
func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	userID, matchID, ok := s.matchRequestIDs(w, r)
	if !ok {
		return
	}

	var req types.SaveDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	ctx, cancel := mutationContext(r)
	defer cancel()

	draft, err := s.controller.SaveEdit(ctx, userID, matchID, req.CoverLetter, toDBAnswers(req.Answers))
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, draft)
}

// handleApprove approves a match. Edits in the request body are applied
// atomically with the approval; with an empty body the current draft content
// is submitted as-is.
func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	userID, matchID, ok := s.matchRequestIDs(w, r)
	if !ok {
		return
	}

	var req types.ApproveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := req.Validate(); err != nil {
			s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
			return
		}
	}

	ctx, cancel := mutationContext(r)
	defer cancel()

	coverLetter, answers, err := s.resolveApproveContent(ctx, userID, matchID, &req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	match, err := s.controller.Approve(ctx, userID, matchID, coverLetter, answers)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, match)
}

// resolveApproveContent merges request edits over the stored draft. Fields
// present in the request win; absent fields fall back to what the user last
// saved.
func (s *Server) resolveApproveContent(ctx context.Context, userID, matchID uuid.UUID, req *types.ApproveRequest) (string, []db.Answer, error) {
	if req.CoverLetter != nil && req.Answers != nil {
		return *req.CoverLetter, toDBAnswers(req.Answers), nil
	}

	view, err := s.controller.LoadMatch(ctx, userID, matchID)
	if err != nil {
		return "", nil, err
	}

	var coverLetter string
	var answers []db.Answer
	if view.Draft != nil {
		coverLetter = view.Draft.CoverLetter
		answers = view.Draft.Answers
	}
	if req.CoverLetter != nil {
		coverLetter = *req.CoverLetter
	}
	if req.Answers != nil {
		answers = toDBAnswers(req.Answers)
	}
	return coverLetter, answers, nil
}

// handleSkip skips a match with an optional reason.
func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	userID, matchID, ok := s.matchRequestIDs(w, r)
	if !ok {
		return
	}

	var req types.SkipRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := req.Validate(); err != nil {
			s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
			return
		}
	}

	ctx, cancel := mutationContext(r)
	defer cancel()

	match, err := s.controller.Skip(ctx, userID, matchID, req.Reason)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, match)
}

func toDBAnswers(answers []types.AnswerInput) []db.Answer {
	if answers == nil {
		return nil
	}
	result := make([]db.Answer, len(answers))
	for i, a := range answers {
		result[i] = db.Answer{Question: a.Question, Answer: a.Answer}
	}
	return result
}
