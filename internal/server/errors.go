package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/apply-assistant/internal/lifecycle"
	"github.com/jonathan/apply-assistant/internal/pipeline"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// It covers both the auth errors raised in this package and the match
// lifecycle taxonomy.
func HTTPStatus(err error) int {
	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials:
		return http.StatusUnauthorized
	}

	var (
		notFound     *lifecycle.ErrNotFound
		notAuthed    *lifecycle.ErrNotAuthenticated
		invalidTrans *lifecycle.ErrInvalidTransition
		remote       *lifecycle.ErrRemoteUnavailable
		validation   *lifecycle.ErrValidation
		onboarding   *pipeline.OnboardingIncompleteError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &notAuthed):
		return http.StatusUnauthorized
	case errors.As(err, &invalidTrans):
		return http.StatusConflict
	case errors.As(err, &remote):
		return http.StatusBadGateway
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &onboarding):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
