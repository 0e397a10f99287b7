package types

import (
	"github.com/go-playground/validator/v10"
)

// UpdatePreferencesRequest sets the user's search preferences. At least one
// target role is required before pipeline runs are allowed.
type UpdatePreferencesRequest struct {
	Roles      []string `json:"roles" validate:"required,min=1,dive,min=1"`
	Locations  []string `json:"locations,omitempty" validate:"omitempty,dive,min=1"`
	RemoteOnly bool     `json:"remote_only"`
}

// Validate validates the UpdatePreferencesRequest using the validator.
func (r *UpdatePreferencesRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
