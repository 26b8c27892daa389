package mda

import "errors"

// CreateMDADTO is the payload for registering a new MDA.
type CreateMDADTO struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Sector   string `json:"sector"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

func (dto CreateMDADTO) Validate() error {
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if dto.Code == "" {
		return errors.New("code is required")
	}
	return nil
}

// UpdateMDADTO carries partial updates; nil fields are left unchanged.
type UpdateMDADTO struct {
	Name     *string `json:"name,omitempty"`
	Sector   *string `json:"sector,omitempty"`
	ParentID *int64  `json:"parent_id,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (dto UpdateMDADTO) Validate() error {
	if dto.Name != nil && *dto.Name == "" {
		return errors.New("name cannot be empty")
	}
	return nil
}
