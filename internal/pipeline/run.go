// Package pipeline orchestrates a full assistant run: check the user's
// profile is complete, collect postings from the configured boards, then
// score and draft each new match with bounded concurrency.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/apply-assistant/internal/collect"
	"github.com/jonathan/apply-assistant/internal/db"
	"github.com/jonathan/apply-assistant/internal/gateway"
	"github.com/jonathan/apply-assistant/internal/notify"
)

// DefaultConcurrency bounds simultaneous gateway calls during a run.
const DefaultConcurrency = 4

// Missing-requirement codes carried by OnboardingIncompleteError.
const (
	CodeMissingResume      = "MISSING_RESUME"
	CodeMissingPreferences = "MISSING_PREFERENCES"
)

// OnboardingIncompleteError is returned when a run is triggered before the
// user has uploaded a resume and set preferences. Callers can distinguish it
// from infrastructure failure and render the missing items.
type OnboardingIncompleteError struct {
	Codes []string
}

func (e *OnboardingIncompleteError) Error() string {
	return fmt.Sprintf("Onboarding incomplete: %s", strings.Join(e.Codes, ", "))
}

// Store is the persistence surface a run needs. *db.DB satisfies it.
type Store interface {
	CountResumes(ctx context.Context, userID uuid.UUID) (int, error)
	GetPreferences(ctx context.Context, userID uuid.UUID) (*db.Preferences, error)
	GetLatestResume(ctx context.Context, userID uuid.UUID) (*db.Resume, error)
	UpsertJobPosting(ctx context.Context, title, company, location, description, url, source string) (*db.JobPosting, error)
	CreateMatch(ctx context.Context, userID, postingID uuid.UUID, status db.MatchStatus) (*db.JobMatch, bool, error)
	SetMatchScore(ctx context.Context, matchID uuid.UUID, score int, reasons *db.FitReasons) error
	SetMatchStatus(ctx context.Context, matchID uuid.UUID, status db.MatchStatus) error
	UpsertGeneratedDraft(ctx context.Context, matchID uuid.UUID, coverLetter string, answers []db.Answer, notes *db.TailoringNotes) (*db.ApplicationDraft, error)
}

// Collector produces postings from the configured boards.
type Collector interface {
	Collect(ctx context.Context, boardURLs []string) []collect.CollectedPosting
}

// Runner executes pipeline runs.
type Runner struct {
	store       Store
	collector   Collector
	gateway     gateway.Client
	notifier    notify.Notifier
	logger      *zap.Logger
	boardURLs   []string
	concurrency int
}

// NewRunner wires a Runner. notifier may be nil.
func NewRunner(store Store, collector Collector, gw gateway.Client, notifier notify.Notifier, logger *zap.Logger, boardURLs []string) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:       store,
		collector:   collector,
		gateway:     gw,
		notifier:    notifier,
		logger:      logger,
		boardURLs:   boardURLs,
		concurrency: DefaultConcurrency,
	}
}

// Run executes one full pipeline run for the user. Individual posting
// failures are counted and logged but do not abort the run; the run itself
// fails only on an incomplete profile or an unreachable store.
func (r *Runner) Run(ctx context.Context, userID uuid.UUID) (*notify.RunSummary, error) {
	if err := r.checkOnboarding(ctx, userID); err != nil {
		return nil, err
	}

	resume, err := r.store.GetLatestResume(ctx, userID)
	if err != nil {
		return nil, r.failRun(fmt.Errorf("failed to load resume: %w", err))
	}
	if resume == nil {
		return nil, &OnboardingIncompleteError{Codes: []string{CodeMissingResume}}
	}
	prefs, err := r.store.GetPreferences(ctx, userID)
	if err != nil {
		return nil, r.failRun(fmt.Errorf("failed to load preferences: %w", err))
	}

	collected := r.collector.Collect(ctx, r.boardURLs)
	r.logger.Info("collection finished",
		zap.String("user_id", userID.String()),
		zap.Int("postings", len(collected)))

	var mu sync.Mutex
	summary := notify.RunSummary{PostingsCollected: len(collected)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, item := range collected {
		item := item
		g.Go(func() error {
			created, err := r.processPosting(gctx, userID, resume, prefs, item, &mu, &summary)
			if err != nil {
				r.logger.Warn("posting processing failed",
					zap.String("url", item.Posting.URL),
					zap.Error(err))
			}
			mu.Lock()
			if created {
				summary.MatchesCreated++
			}
			if err != nil {
				summary.Failures++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	r.logger.Info("pipeline run finished",
		zap.String("user_id", userID.String()),
		zap.Int("matches_created", summary.MatchesCreated),
		zap.Int("drafts_generated", summary.DraftsGenerated),
		zap.Int("needs_review", summary.NeedsReview),
		zap.Int("failures", summary.Failures))

	if r.notifier != nil {
		if err := r.notifier.PipelineFinished(summary); err != nil {
			r.logger.Warn("notification failed", zap.Error(err))
		}
	}

	return &summary, nil
}

// failRun reports a run-aborting failure to the notifier and passes the
// error through. Onboarding-incomplete errors skip this path; the caller is
// told synchronously and there is no run to report on.
func (r *Runner) failRun(err error) error {
	if r.notifier != nil {
		if nerr := r.notifier.PipelineFailed(err); nerr != nil {
			r.logger.Warn("failure notification failed", zap.Error(nerr))
		}
	}
	return err
}

// checkOnboarding enforces the profile gate: at least one resume and
// preferences naming at least one role.
func (r *Runner) checkOnboarding(ctx context.Context, userID uuid.UUID) error {
	count, err := r.store.CountResumes(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count resumes: %w", err)
	}
	prefs, err := r.store.GetPreferences(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}

	var codes []string
	if count == 0 {
		codes = append(codes, CodeMissingResume)
	}
	if prefs == nil || len(prefs.Roles) == 0 {
		codes = append(codes, CodeMissingPreferences)
	}
	if len(codes) > 0 {
		return &OnboardingIncompleteError{Codes: codes}
	}
	return nil
}

// processPosting stores one posting, creates the match if it does not exist
// yet, and runs scoring and drafting for it. Returns whether a new match was
// created.
func (r *Runner) processPosting(ctx context.Context, userID uuid.UUID, resume *db.Resume, prefs *db.Preferences, item collect.CollectedPosting, mu *sync.Mutex, summary *notify.RunSummary) (bool, error) {
	p := item.Posting
	posting, err := r.store.UpsertJobPosting(ctx, p.Title, p.Company, p.Location, p.Description, p.URL, p.Source)
	if err != nil {
		return false, fmt.Errorf("failed to store posting: %w", err)
	}

	// New matches start in NEEDS_REVIEW so a drafting failure leaves them
	// visible to the user rather than silently dropped.
	match, created, err := r.store.CreateMatch(ctx, userID, posting.ID, db.StatusNeedsReview)
	if err != nil {
		return false, fmt.Errorf("failed to create match: %w", err)
	}
	if !created {
		// Seen on an earlier run; do not rescore or overwrite the draft.
		return false, nil
	}

	score, err := gateway.ScoreFit(ctx, r.gateway, gateway.ScoreInput{
		ResumeText:  resume.Text,
		Posting:     posting,
		Preferences: prefs,
	})
	if err != nil {
		return true, fmt.Errorf("scoring failed: %w", err)
	}
	if err := r.store.SetMatchScore(ctx, match.ID, score.FitScore, score.Reasons); err != nil {
		return true, fmt.Errorf("failed to store score: %w", err)
	}

	draft, err := gateway.DraftApplication(ctx, r.gateway, gateway.DraftInput{
		ResumeText: resume.Text,
		Posting:    posting,
		Reasons:    score.Reasons,
		Questions:  item.Questions,
	})
	if err != nil {
		return true, fmt.Errorf("drafting failed: %w", err)
	}
	if _, err := r.store.UpsertGeneratedDraft(ctx, match.ID, draft.CoverLetter, draft.Answers, &draft.Notes); err != nil {
		return true, fmt.Errorf("failed to store draft: %w", err)
	}

	mu.Lock()
	summary.DraftsGenerated++
	mu.Unlock()

	// A clean draft moves straight to DRAFTED; tailoring issues keep the
	// match flagged for review.
	if len(draft.Notes.Issues) == 0 {
		if err := r.store.SetMatchStatus(ctx, match.ID, db.StatusDrafted); err != nil {
			return true, fmt.Errorf("failed to update status: %w", err)
		}
	} else {
		mu.Lock()
		summary.NeedsReview++
		mu.Unlock()
	}

	return true, nil
}
