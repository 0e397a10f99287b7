package db

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns matches, resumes and preferences.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PasswordSet  bool      `json:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Resume is an uploaded resume with its extracted text.
type Resume struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FileName  string    `json:"file_name"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Preferences holds the user's search preferences. At least one role is
// required before the pipeline will run.
type Preferences struct {
	UserID     uuid.UUID `json:"user_id"`
	Roles      []string  `json:"roles"`
	Locations  []string  `json:"locations,omitempty"`
	RemoteOnly bool      `json:"remote_only"`
	UpdatedAt  time.Time `json:"updated_at"`
}
