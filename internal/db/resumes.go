package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Resume Methods
// -----------------------------------------------------------------------------

// CreateResume stores an uploaded resume with its extracted text.
func (db *DB) CreateResume(ctx context.Context, userID uuid.UUID, fileName, text string) (*Resume, error) {
	var r Resume
	err := db.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, file_name, text)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, file_name, text, created_at`,
		userID, fileName, text,
	).Scan(&r.ID, &r.UserID, &r.FileName, &r.Text, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	return &r, nil
}

// CountResumes returns how many resumes the user has on file.
func (db *DB) CountResumes(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM resumes WHERE user_id = $1`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count resumes: %w", err)
	}
	return n, nil
}

// GetLatestResume retrieves the most recently uploaded resume, nil if none.
func (db *DB) GetLatestResume(ctx context.Context, userID uuid.UUID) (*Resume, error) {
	var r Resume
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, file_name, text, created_at
		 FROM resumes WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&r.ID, &r.UserID, &r.FileName, &r.Text, &r.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest resume: %w", err)
	}
	return &r, nil
}
