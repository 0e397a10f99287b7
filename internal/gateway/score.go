package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/apply-assistant/internal/db"
	"github.com/jonathan/apply-assistant/internal/schemas"
)

// Prompt budgets in runes. Postings and resumes can be long; the scorer only
// needs enough to judge overlap.
const (
	maxResumeRunes  = 12000
	maxPostingRunes = 8000
)

// ScoreInput is everything the scoring call needs.
type ScoreInput struct {
	ResumeText  string
	Posting     *db.JobPosting
	Preferences *db.Preferences
}

// ScoreResult is the validated scoring response.
type ScoreResult struct {
	FitScore int
	Reasons  *db.FitReasons
}

type scorePayload struct {
	FitScore   int                `json:"fit_score"`
	Categories []db.CategoryScore `json:"categories"`
	Strengths  []string           `json:"strengths"`
	Gaps       []string           `json:"gaps"`
	Summary    string             `json:"summary"`
}

// ScoreFit asks the gateway to rate resume-to-posting fit on a 0-100 scale
// with structured reasons. The response is schema-validated before use.
func ScoreFit(ctx context.Context, client Client, input ScoreInput) (*ScoreResult, error) {
	if input.Posting == nil {
		return nil, fmt.Errorf("posting is required")
	}
	if strings.TrimSpace(input.ResumeText) == "" {
		return nil, fmt.Errorf("resume text is required")
	}

	prompt := buildScorePrompt(input)
	raw, err := client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, fmt.Errorf("scoring call failed: %w", err)
	}

	data := []byte(raw)
	if err := schemas.ValidateFitScore(data); err != nil {
		return nil, fmt.Errorf("scoring response rejected: %w", err)
	}

	var payload scorePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}

	return &ScoreResult{
		FitScore: payload.FitScore,
		Reasons: &db.FitReasons{
			Categories: payload.Categories,
			Strengths:  payload.Strengths,
			Gaps:       payload.Gaps,
			Summary:    payload.Summary,
			Raw:        json.RawMessage(data),
		},
	}, nil
}

func buildScorePrompt(input ScoreInput) string {
	var sb strings.Builder
	sb.WriteString("You are scoring how well a candidate's resume fits a job posting.\n")
	sb.WriteString("Respond with JSON only, shaped as:\n")
	sb.WriteString(`{"fit_score": 0-100, "categories": [{"category": "...", "score": 0-100}], "strengths": ["..."], "gaps": ["..."], "summary": "..."}` + "\n\n")

	sb.WriteString("## Job Posting\n")
	fmt.Fprintf(&sb, "Title: %s\nCompany: %s\n", input.Posting.Title, input.Posting.Company)
	if input.Posting.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", input.Posting.Location)
	}
	sb.WriteString(truncateRunes(input.Posting.Description, maxPostingRunes))
	sb.WriteString("\n\n## Resume\n")
	sb.WriteString(truncateRunes(input.ResumeText, maxResumeRunes))

	if input.Preferences != nil && len(input.Preferences.Roles) > 0 {
		sb.WriteString("\n\n## Candidate Preferences\n")
		fmt.Fprintf(&sb, "Target roles: %s\n", strings.Join(input.Preferences.Roles, ", "))
		if len(input.Preferences.Locations) > 0 {
			fmt.Fprintf(&sb, "Preferred locations: %s\n", strings.Join(input.Preferences.Locations, ", "))
		}
		if input.Preferences.RemoteOnly {
			sb.WriteString("Remote only.\n")
		}
	}

	return sb.String()
}
