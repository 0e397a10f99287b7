package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/apply-assistant/internal/db"
	"github.com/jonathan/apply-assistant/internal/schemas"
)

// DraftInput carries the context the drafting call works from.
type DraftInput struct {
	ResumeText string
	Posting    *db.JobPosting
	Reasons    *db.FitReasons
	Questions  []string
}

// DraftResult is the validated drafting response.
type DraftResult struct {
	CoverLetter string
	Answers     []db.Answer
	Notes       db.TailoringNotes
}

type draftPayload struct {
	CoverLetter string      `json:"cover_letter"`
	Answers     []db.Answer `json:"answers"`
	Confidence  *float64    `json:"confidence"`
	Issues      []string    `json:"issues"`
}

// DraftApplication asks the gateway to write a cover letter and answer the
// posting's application questions. Uses the advanced tier since drafting
// quality matters more than latency here.
func DraftApplication(ctx context.Context, client Client, input DraftInput) (*DraftResult, error) {
	if input.Posting == nil {
		return nil, fmt.Errorf("posting is required")
	}
	if strings.TrimSpace(input.ResumeText) == "" {
		return nil, fmt.Errorf("resume text is required")
	}

	prompt := buildDraftPrompt(input)
	raw, err := client.GenerateJSON(ctx, prompt, TierAdvanced)
	if err != nil {
		return nil, fmt.Errorf("drafting call failed: %w", err)
	}

	data := []byte(raw)
	if err := schemas.ValidateDraft(data); err != nil {
		return nil, fmt.Errorf("draft response rejected: %w", err)
	}

	var payload draftPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse draft response: %w", err)
	}

	confidence := 0.5
	if payload.Confidence != nil {
		confidence = *payload.Confidence
	}

	return &DraftResult{
		CoverLetter: payload.CoverLetter,
		Answers:     payload.Answers,
		Notes: db.TailoringNotes{
			GeneratedAt: time.Now().UTC(),
			Confidence:  confidence,
			Issues:      payload.Issues,
			Raw:         json.RawMessage(data),
		},
	}, nil
}

func buildDraftPrompt(input DraftInput) string {
	var sb strings.Builder
	sb.WriteString("You are drafting a job application on behalf of a candidate.\n")
	sb.WriteString("Write a concise, specific cover letter grounded in the resume. Do not invent experience.\n")
	sb.WriteString("Respond with JSON only, shaped as:\n")
	sb.WriteString(`{"cover_letter": "...", "answers": [{"question": "...", "answer": "..."}], "confidence": 0.0-1.0, "issues": ["..."]}` + "\n")
	sb.WriteString("List in issues anything you were unsure about or could not ground in the resume.\n\n")

	sb.WriteString("## Job Posting\n")
	fmt.Fprintf(&sb, "Title: %s\nCompany: %s\n", input.Posting.Title, input.Posting.Company)
	sb.WriteString(truncateRunes(input.Posting.Description, maxPostingRunes))

	sb.WriteString("\n\n## Resume\n")
	sb.WriteString(truncateRunes(input.ResumeText, maxResumeRunes))

	if input.Reasons != nil && input.Reasons.Summary != "" {
		sb.WriteString("\n\n## Fit Assessment\n")
		sb.WriteString(input.Reasons.Summary)
		if len(input.Reasons.Strengths) > 0 {
			fmt.Fprintf(&sb, "\nStrengths to emphasize: %s", strings.Join(input.Reasons.Strengths, "; "))
		}
	}

	if len(input.Questions) > 0 {
		sb.WriteString("\n\n## Application Questions\n")
		sb.WriteString("Answer each of these in the answers array, in order:\n")
		for i, q := range input.Questions {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
		}
	}

	return sb.String()
}
