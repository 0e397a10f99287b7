package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Application Draft Methods
// -----------------------------------------------------------------------------

// UpsertDraft creates or updates the draft content for a match. The unique
// constraint on match_id makes repeated saves with identical content land on
// the same row: last write wins, no duplicates. Tailoring notes are left
// untouched so a review flag set at generation time survives user edits.
func (db *DB) UpsertDraft(ctx context.Context, matchID uuid.UUID, coverLetter string, answers []Answer) (*ApplicationDraft, error) {
	answersJSON, err := marshalAnswers(answers)
	if err != nil {
		return nil, err
	}

	var d ApplicationDraft
	var storedAnswers, notesJSON []byte

	err = db.pool.QueryRow(ctx,
		`INSERT INTO application_drafts (match_id, cover_letter, answers)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (match_id) DO UPDATE SET
		     cover_letter = $2, answers = $3, updated_at = NOW()
		 RETURNING id, match_id, cover_letter, answers, tailoring_notes, created_at, updated_at`,
		matchID, coverLetter, answersJSON,
	).Scan(&d.ID, &d.MatchID, &d.CoverLetter, &storedAnswers, &notesJSON, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert draft: %w", err)
	}

	d.Answers = parseAnswers(storedAnswers)
	d.Notes = parseNotes(notesJSON)
	return &d, nil
}

// UpsertGeneratedDraft stores a pipeline-generated draft including its
// tailoring notes. Used by the drafting step, not by user edits.
func (db *DB) UpsertGeneratedDraft(ctx context.Context, matchID uuid.UUID, coverLetter string, answers []Answer, notes *TailoringNotes) (*ApplicationDraft, error) {
	answersJSON, err := marshalAnswers(answers)
	if err != nil {
		return nil, err
	}

	var notesJSON []byte
	if notes != nil {
		if notesJSON, err = json.Marshal(notes); err != nil {
			return nil, fmt.Errorf("failed to marshal tailoring notes: %w", err)
		}
	}

	var d ApplicationDraft
	var storedAnswers, storedNotes []byte

	err = db.pool.QueryRow(ctx,
		`INSERT INTO application_drafts (match_id, cover_letter, answers, tailoring_notes)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (match_id) DO UPDATE SET
		     cover_letter = $2, answers = $3, tailoring_notes = $4, updated_at = NOW()
		 RETURNING id, match_id, cover_letter, answers, tailoring_notes, created_at, updated_at`,
		matchID, coverLetter, answersJSON, notesJSON,
	).Scan(&d.ID, &d.MatchID, &d.CoverLetter, &storedAnswers, &storedNotes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert generated draft: %w", err)
	}

	d.Answers = parseAnswers(storedAnswers)
	d.Notes = parseNotes(storedNotes)
	return &d, nil
}
