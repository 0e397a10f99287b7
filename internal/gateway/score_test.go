package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jonathan/apply-assistant/internal/db"
)

// fakeClient returns canned responses per tier and records prompts.
type fakeClient struct {
	responses map[ModelTier]string
	err       error
	prompts   []string
	tiers     []ModelTier
}

func (f *fakeClient) GenerateJSON(_ context.Context, prompt string, tier ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.tiers = append(f.tiers, tier)
	if f.err != nil {
		return "", f.err
	}
	return f.responses[tier], nil
}

func (f *fakeClient) Close() error { return nil }

func testPosting() *db.JobPosting {
	return &db.JobPosting{
		Title:       "Backend Engineer",
		Company:     "Acme",
		Location:    "Remote",
		Description: "Build and run Go services.",
	}
}

func TestScoreFit(t *testing.T) {
	client := &fakeClient{responses: map[ModelTier]string{
		TierStandard: `{"fit_score": 82, "categories": [{"category": "skills", "score": 90}], "strengths": ["Go"], "gaps": ["Kubernetes"], "summary": "Strong match.", "model_hint": "extra"}`,
	}}

	result, err := ScoreFit(context.Background(), client, ScoreInput{
		ResumeText: "Five years of Go.",
		Posting:    testPosting(),
		Preferences: &db.Preferences{
			Roles:      []string{"Backend Engineer"},
			RemoteOnly: true,
		},
	})
	if err != nil {
		t.Fatalf("ScoreFit() error = %v", err)
	}

	if result.FitScore != 82 {
		t.Errorf("FitScore = %d, want 82", result.FitScore)
	}
	if result.Reasons.Summary != "Strong match." {
		t.Errorf("Summary = %q", result.Reasons.Summary)
	}
	if len(result.Reasons.Categories) != 1 || result.Reasons.Categories[0].Score != 90 {
		t.Errorf("Categories = %+v", result.Reasons.Categories)
	}
	// Unknown provider fields survive in the raw payload.
	if !strings.Contains(string(result.Reasons.Raw), "model_hint") {
		t.Error("raw payload lost unknown fields")
	}

	if len(client.tiers) != 1 || client.tiers[0] != TierStandard {
		t.Errorf("tiers = %v, want one standard call", client.tiers)
	}
	prompt := client.prompts[0]
	for _, want := range []string{"Backend Engineer", "Acme", "Five years of Go.", "Remote only."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestScoreFitRejectsInvalidResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"missing fit_score", `{"summary": "ok"}`},
		{"score out of range", `{"fit_score": 140, "summary": "ok"}`},
		{"not json", `the candidate looks fine`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{responses: map[ModelTier]string{TierStandard: tt.response}}
			_, err := ScoreFit(context.Background(), client, ScoreInput{
				ResumeText: "resume",
				Posting:    testPosting(),
			})
			if err == nil {
				t.Fatal("expected error for invalid response")
			}
		})
	}
}

func TestScoreFitPropagatesClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("quota exceeded")}
	_, err := ScoreFit(context.Background(), client, ScoreInput{
		ResumeText: "resume",
		Posting:    testPosting(),
	})
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error = %v, want wrapped client error", err)
	}
}

func TestScoreFitRequiresInput(t *testing.T) {
	client := &fakeClient{}
	if _, err := ScoreFit(context.Background(), client, ScoreInput{ResumeText: "r"}); err == nil {
		t.Error("expected error for missing posting")
	}
	if _, err := ScoreFit(context.Background(), client, ScoreInput{Posting: testPosting()}); err == nil {
		t.Error("expected error for missing resume")
	}
	if len(client.prompts) != 0 {
		t.Error("client should not be called on invalid input")
	}
}
