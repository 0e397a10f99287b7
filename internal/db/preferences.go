package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -----------------------------------------------------------------------------
// Preferences Methods
// -----------------------------------------------------------------------------

// GetPreferences retrieves the user's search preferences, nil if never set.
func (db *DB) GetPreferences(ctx context.Context, userID uuid.UUID) (*Preferences, error) {
	var p Preferences
	err := db.pool.QueryRow(ctx,
		`SELECT user_id, roles, locations, remote_only, updated_at
		 FROM preferences WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Roles, &p.Locations, &p.RemoteOnly, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return &p, nil
}

// UpsertPreferences creates or replaces the user's search preferences.
func (db *DB) UpsertPreferences(ctx context.Context, userID uuid.UUID, roles, locations []string, remoteOnly bool) (*Preferences, error) {
	if roles == nil {
		roles = []string{}
	}
	if locations == nil {
		locations = []string{}
	}

	var p Preferences
	err := db.pool.QueryRow(ctx,
		`INSERT INTO preferences (user_id, roles, locations, remote_only)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		     roles = $2, locations = $3, remote_only = $4, updated_at = NOW()
		 RETURNING user_id, roles, locations, remote_only, updated_at`,
		userID, roles, locations, remoteOnly,
	).Scan(&p.UserID, &p.Roles, &p.Locations, &p.RemoteOnly, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return &p, nil
}
