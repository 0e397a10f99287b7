package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Job Posting Methods
// -----------------------------------------------------------------------------

// UpsertJobPosting creates a posting keyed by URL, or returns the existing
// row. Postings are immutable once collected, so a conflict changes nothing.
func (db *DB) UpsertJobPosting(ctx context.Context, title, company, location, description, url, source string) (*JobPosting, error) {
	var p JobPosting

	err := db.pool.QueryRow(ctx,
		`INSERT INTO job_postings (title, company, location, description, url, source)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (url) DO UPDATE SET url = job_postings.url
		 RETURNING id, title, company, location, description, url, source, created_at`,
		title, company, location, description, url, source,
	).Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.Description, &p.URL, &p.Source, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert job posting: %w", err)
	}

	return &p, nil
}

// GetJobPostingByID retrieves a job posting by its ID, nil if absent.
func (db *DB) GetJobPostingByID(ctx context.Context, id uuid.UUID) (*JobPosting, error) {
	var p JobPosting

	err := db.pool.QueryRow(ctx,
		`SELECT id, title, company, location, description, url, source, created_at
		 FROM job_postings WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Title, &p.Company, &p.Location, &p.Description, &p.URL, &p.Source, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job posting: %w", err)
	}

	return &p, nil
}
