package user

import (
	"strings"

	"github.com/civicworks/revenue-tracker/internal"
)

type CreateUserDTO struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"password"`
	MDAID    *int64   `json:"mda_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

func (d CreateUserDTO) Validate() error {
	if !strings.Contains(d.Email, "@") {
		return internal.NewValidationError("a valid email is required", internal.ErrCodeValidationFailed)
	}
	if d.Name == "" {
		return internal.NewValidationError("name is required", internal.ErrCodeValidationFailed)
	}
	if len(d.Password) < 8 {
		return internal.NewValidationError("password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

type UpdateUserDTO struct {
	Name     *string   `json:"name,omitempty"`
	MDAID    *int64    `json:"mda_id,omitempty"`
	IsActive *bool     `json:"is_active,omitempty"`
	Roles    *[]string `json:"roles,omitempty"`
}
