package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jonathan/apply-assistant/internal/ingestion"
	"github.com/jonathan/apply-assistant/internal/server/middleware"
	"github.com/jonathan/apply-assistant/internal/types"
)

// handleUploadResume accepts a PDF or plain-text resume body, extracts its
// text and stores it. The file name comes from the X-File-Name header when
// the client sends one.
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, ingestion.MaxResumeBytes+1))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	text, err := ingestion.ExtractResumeText(data)
	if err != nil {
		var unsupported *ingestion.ErrUnsupportedFormat
		if errors.As(err, &unsupported) {
			s.errorResponse(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	fileName := r.Header.Get("X-File-Name")
	if fileName == "" {
		fileName = "resume"
	}

	resume, err := s.profiles.CreateResume(r.Context(), userID, fileName, text)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, "Failed to store resume")
		return
	}

	s.jsonResponse(w, http.StatusCreated, resume)
}

// handleGetPreferences returns the user's preferences, 404 if never set.
func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	prefs, err := s.profiles.GetPreferences(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, "Failed to load preferences")
		return
	}
	if prefs == nil {
		s.errorResponse(w, http.StatusNotFound, "Preferences not set")
		return
	}

	s.jsonResponse(w, http.StatusOK, prefs)
}

// handleUpdatePreferences replaces the user's preferences.
func (s *Server) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.UpdatePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	prefs, err := s.profiles.UpsertPreferences(r.Context(), userID, req.Roles, req.Locations, req.RemoteOnly)
	if err != nil {
		s.errorResponse(w, http.StatusBadGateway, "Failed to store preferences")
		return
	}

	s.jsonResponse(w, http.StatusOK, prefs)
}

// handleProfileStatus reports whether onboarding is complete and what is missing.
func (s *Server) handleProfileStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	status, err := s.controller.CheckProfile(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, status)
}
