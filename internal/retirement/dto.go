package retirement

import "github.com/civicworks/revenue-tracker/internal"

type CreateRetirementDTO struct {
	ExpenditureID int64 `json:"expenditure_id"`
	AmountRetired int64 `json:"amount_retired"`
}

func (d CreateRetirementDTO) Validate() error {
	if d.ExpenditureID <= 0 {
		return internal.NewValidationError("expenditure_id is required", internal.ErrCodeValidationFailed)
	}
	if d.AmountRetired <= 0 {
		return internal.NewValidationError("amount_retired must be positive", internal.ErrCodeInvalidAmount)
	}
	return nil
}

type UpdateRetirementDTO struct {
	AmountRetired *int64 `json:"amount_retired,omitempty"`
}

type RejectRetirementDTO struct {
	Reason string `json:"reason"`
}
