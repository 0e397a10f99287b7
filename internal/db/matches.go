package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Job Match Methods
// -----------------------------------------------------------------------------

// CreateMatch inserts a match for (userID, postingID) with the given initial
// status, or returns the existing one. Exactly one match exists per
// (user, posting) pair.
func (db *DB) CreateMatch(ctx context.Context, userID, postingID uuid.UUID, status MatchStatus) (*JobMatch, bool, error) {
	var m JobMatch
	var reasonsJSON []byte

	err := db.pool.QueryRow(ctx,
		`INSERT INTO job_matches (user_id, posting_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, posting_id) DO NOTHING
		 RETURNING id, user_id, posting_id, fit_score, reasons, status, created_at`,
		userID, postingID, status,
	).Scan(&m.ID, &m.UserID, &m.PostingID, &m.FitScore, &reasonsJSON, &m.Status, &m.CreatedAt)
	if err == nil {
		m.Reasons = parseReasons(reasonsJSON)
		return &m, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, fmt.Errorf("failed to create match: %w", err)
	}

	// Conflict: fetch the existing row.
	existing, err := db.getMatch(ctx, userID, postingID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (db *DB) getMatch(ctx context.Context, userID, postingID uuid.UUID) (*JobMatch, error) {
	var m JobMatch
	var reasonsJSON []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, posting_id, fit_score, reasons, status, created_at
		 FROM job_matches WHERE user_id = $1 AND posting_id = $2`,
		userID, postingID,
	).Scan(&m.ID, &m.UserID, &m.PostingID, &m.FitScore, &reasonsJSON, &m.Status, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	m.Reasons = parseReasons(reasonsJSON)
	return &m, nil
}

// SetMatchScore records the fit score and reasons produced by the scoring
// step. The score is write-once: a match that already has a score keeps it.
func (db *DB) SetMatchScore(ctx context.Context, matchID uuid.UUID, score int, reasons *FitReasons) error {
	reasonsJSON, err := marshalReasons(reasons)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE job_matches SET fit_score = $1, reasons = $2
		 WHERE id = $3 AND fit_score IS NULL`,
		score, reasonsJSON, matchID,
	)
	if err != nil {
		return fmt.Errorf("failed to set match score: %w", err)
	}
	return nil
}

// SetMatchStatus moves a non-terminal match to the given status without any
// other side effects. Used by the pipeline when tailoring issues demand
// review.
func (db *DB) SetMatchStatus(ctx context.Context, matchID uuid.UUID, status MatchStatus) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE job_matches SET status = $1
		 WHERE id = $2 AND status NOT IN ('APPLIED', 'SUBMITTED', 'SKIPPED')`,
		status, matchID,
	)
	if err != nil {
		return fmt.Errorf("failed to set match status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMatchTerminal
	}
	return nil
}

// GetMatchView retrieves the match joined with its posting and draft for the
// owning user. Returns nil without error when the match does not exist or
// belongs to a different user; a missing draft is not an error.
func (db *DB) GetMatchView(ctx context.Context, userID, matchID uuid.UUID) (*MatchView, error) {
	var v MatchView
	var reasonsJSON []byte
	var draftID *uuid.UUID
	var coverLetter *string
	var answersJSON, notesJSON []byte
	var draftCreated, draftUpdated *time.Time

	err := db.pool.QueryRow(ctx,
		`SELECT m.id, m.user_id, m.posting_id, m.fit_score, m.reasons, m.status, m.created_at,
		        p.id, p.title, p.company, p.location, p.description, p.url, p.created_at,
		        d.id, d.cover_letter, d.answers, d.tailoring_notes, d.created_at, d.updated_at
		 FROM job_matches m
		 JOIN job_postings p ON p.id = m.posting_id
		 LEFT JOIN application_drafts d ON d.match_id = m.id
		 WHERE m.id = $1 AND m.user_id = $2`,
		matchID, userID,
	).Scan(&v.Match.ID, &v.Match.UserID, &v.Match.PostingID, &v.Match.FitScore, &reasonsJSON,
		&v.Match.Status, &v.Match.CreatedAt,
		&v.Posting.ID, &v.Posting.Title, &v.Posting.Company, &v.Posting.Location,
		&v.Posting.Description, &v.Posting.URL, &v.Posting.CreatedAt,
		&draftID, &coverLetter, &answersJSON, &notesJSON, &draftCreated, &draftUpdated)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get match view: %w", err)
	}

	v.Match.Reasons = parseReasons(reasonsJSON)

	if draftID != nil {
		d := &ApplicationDraft{
			ID:        *draftID,
			MatchID:   v.Match.ID,
			CreatedAt: *draftCreated,
			UpdatedAt: *draftUpdated,
		}
		if coverLetter != nil {
			d.CoverLetter = *coverLetter
		}
		d.Answers = parseAnswers(answersJSON)
		d.Notes = parseNotes(notesJSON)
		v.Draft = d
	}

	return &v, nil
}

// ListActionableMatches returns the user's matches still awaiting a decision,
// ordered by fit score descending with unscored matches last; ties break by
// creation time ascending so earlier-collected postings surface first.
func (db *DB) ListActionableMatches(ctx context.Context, userID uuid.UUID) ([]MatchView, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT m.id, m.user_id, m.posting_id, m.fit_score, m.reasons, m.status, m.created_at,
		        p.id, p.title, p.company, p.location, p.description, p.url, p.created_at
		 FROM job_matches m
		 JOIN job_postings p ON p.id = m.posting_id
		 WHERE m.user_id = $1 AND m.status IN ('DRAFTED', 'NEEDS_REVIEW')
		 ORDER BY m.fit_score DESC NULLS LAST, m.created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list actionable matches: %w", err)
	}
	defer rows.Close()

	var views []MatchView
	for rows.Next() {
		var v MatchView
		var reasonsJSON []byte
		err := rows.Scan(&v.Match.ID, &v.Match.UserID, &v.Match.PostingID, &v.Match.FitScore,
			&reasonsJSON, &v.Match.Status, &v.Match.CreatedAt,
			&v.Posting.ID, &v.Posting.Title, &v.Posting.Company, &v.Posting.Location,
			&v.Posting.Description, &v.Posting.URL, &v.Posting.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		v.Match.Reasons = parseReasons(reasonsJSON)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read match rows: %w", err)
	}

	return views, nil
}

// ApproveMatch persists the final draft content, records the submission event
// snapshot and flips the match to APPLIED, all in one transaction. The status
// update is guarded so a terminal match fails with ErrMatchTerminal, and the
// submission insert conflicts away on match_id, so a retry after a mid-flight
// failure can never record two events for one match.
func (db *DB) ApproveMatch(ctx context.Context, matchID uuid.UUID, coverLetter string, answers []Answer) (*JobMatch, error) {
	answersJSON, err := marshalAnswers(answers)
	if err != nil {
		return nil, err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin approve transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var m JobMatch
	var reasonsJSON []byte
	err = tx.QueryRow(ctx,
		`UPDATE job_matches SET status = 'APPLIED'
		 WHERE id = $1 AND status NOT IN ('APPLIED', 'SUBMITTED', 'SKIPPED')
		 RETURNING id, user_id, posting_id, fit_score, reasons, status, created_at`,
		matchID,
	).Scan(&m.ID, &m.UserID, &m.PostingID, &m.FitScore, &reasonsJSON, &m.Status, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrMatchTerminal
		}
		return nil, fmt.Errorf("failed to update match status: %w", err)
	}
	m.Reasons = parseReasons(reasonsJSON)

	_, err = tx.Exec(ctx,
		`INSERT INTO application_drafts (match_id, cover_letter, answers)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (match_id) DO UPDATE SET
		     cover_letter = $2, answers = $3, updated_at = NOW()`,
		matchID, coverLetter, answersJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to persist approved draft: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO submission_events (match_id, cover_letter, answers)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (match_id) DO NOTHING`,
		matchID, coverLetter, answersJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record submission event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit approve transaction: %w", err)
	}

	return &m, nil
}

// SkipMatch flips a non-terminal match to SKIPPED, recording the reason for
// audit. Skipping never deletes the match.
func (db *DB) SkipMatch(ctx context.Context, matchID uuid.UUID, reason string) (*JobMatch, error) {
	var m JobMatch
	var reasonsJSON []byte

	err := db.pool.QueryRow(ctx,
		`UPDATE job_matches SET status = 'SKIPPED', skip_reason = NULLIF($2, '')
		 WHERE id = $1 AND status NOT IN ('APPLIED', 'SUBMITTED', 'SKIPPED')
		 RETURNING id, user_id, posting_id, fit_score, reasons, status, created_at`,
		matchID, reason,
	).Scan(&m.ID, &m.UserID, &m.PostingID, &m.FitScore, &reasonsJSON, &m.Status, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrMatchTerminal
		}
		return nil, fmt.Errorf("failed to skip match: %w", err)
	}
	m.Reasons = parseReasons(reasonsJSON)

	return &m, nil
}

// -----------------------------------------------------------------------------
// JSONB helpers
// -----------------------------------------------------------------------------

// parseReasons decodes the reasons column, keeping the raw bytes so unknown
// fields are preserved rather than dropped.
func parseReasons(raw []byte) *FitReasons {
	if len(raw) == 0 {
		return nil
	}
	var r FitReasons
	if err := json.Unmarshal(raw, &r); err != nil {
		return &FitReasons{Raw: json.RawMessage(raw)}
	}
	r.Raw = json.RawMessage(raw)
	return &r
}

func marshalReasons(r *FitReasons) ([]byte, error) {
	if r == nil {
		return nil, nil
	}
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reasons: %w", err)
	}
	return b, nil
}

func parseAnswers(raw []byte) []Answer {
	if len(raw) == 0 {
		return nil
	}
	var a []Answer
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil
	}
	return a
}

func marshalAnswers(answers []Answer) ([]byte, error) {
	if answers == nil {
		answers = []Answer{}
	}
	b, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answers: %w", err)
	}
	return b, nil
}

func parseNotes(raw []byte) *TailoringNotes {
	if len(raw) == 0 {
		return nil
	}
	var n TailoringNotes
	if err := json.Unmarshal(raw, &n); err != nil {
		return &TailoringNotes{Raw: json.RawMessage(raw)}
	}
	n.Raw = json.RawMessage(raw)
	return &n
}
