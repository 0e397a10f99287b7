package types

import (
	"github.com/go-playground/validator/v10"
)

// AnswerInput is one question/answer pair in a draft edit. Order is
// significant and preserved as submitted.
type AnswerInput struct {
	Question string `json:"question" validate:"required,min=1"`
	Answer   string `json:"answer"`
}

// SaveDraftRequest represents a user edit to a match's application draft.
type SaveDraftRequest struct {
	CoverLetter string        `json:"cover_letter" validate:"max=20000"`
	Answers     []AnswerInput `json:"answers" validate:"max=50,dive"`
}

// ApproveRequest optionally carries final edits applied atomically with the
// approval itself.
type ApproveRequest struct {
	CoverLetter *string       `json:"cover_letter,omitempty" validate:"omitempty,max=20000"`
	Answers     []AnswerInput `json:"answers,omitempty" validate:"omitempty,max=50,dive"`
}

// SkipRequest represents a skip with an optional reason.
type SkipRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=1000"`
}

// Validate validates the SaveDraftRequest using the validator.
func (r *SaveDraftRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the ApproveRequest using the validator.
func (r *ApproveRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SkipRequest using the validator.
func (r *SkipRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
