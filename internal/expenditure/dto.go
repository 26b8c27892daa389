package expenditure

import "errors"

// CreateExpenditureDTO drafts a disbursement request against a line item.
type CreateExpenditureDTO struct {
	LineItemID  int64  `json:"line_item_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

func (dto CreateExpenditureDTO) Validate() error {
	if dto.LineItemID <= 0 {
		return errors.New("line_item_id is required")
	}
	if dto.Amount <= 0 {
		return errors.New("amount must be greater than 0")
	}
	if dto.Description == "" {
		return errors.New("description is required")
	}
	if len(dto.Description) > 500 {
		return errors.New("description must be less than 500 characters")
	}
	return nil
}
