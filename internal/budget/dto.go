package budget

import (
	"errors"
	"time"
)

// CreateBudgetDTO is the payload for drafting a new budget.
type CreateBudgetDTO struct {
	MDAID      int64               `json:"mda_id"`
	FiscalYear int                 `json:"fiscal_year"`
	Title      string              `json:"title"`
	LineItems  []CreateLineItemDTO `json:"line_items,omitempty"`
}

func (dto CreateBudgetDTO) Validate() error {
	if dto.MDAID <= 0 {
		return errors.New("mda_id is required")
	}
	if dto.FiscalYear < 2000 || dto.FiscalYear > time.Now().Year()+5 {
		return errors.New("fiscal_year is out of range")
	}
	if dto.Title == "" {
		return errors.New("title is required")
	}
	for _, li := range dto.LineItems {
		if err := li.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CreateLineItemDTO adds an allocation bucket to a draft budget.
type CreateLineItemDTO struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Amount   int64  `json:"amount"`
}

func (dto CreateLineItemDTO) Validate() error {
	if dto.Code == "" {
		return errors.New("code is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if !ValidCategory(dto.Category) {
		return errors.New("category must be one of personnel, overhead, recurrent, capital")
	}
	if dto.Amount <= 0 {
		return errors.New("amount must be greater than 0")
	}
	return nil
}

// UtilizationDTO is the response shape for a line item utilization query.
type UtilizationDTO struct {
	LineItemID            int64       `json:"line_item_id"`
	Code                  string      `json:"code"`
	Name                  string      `json:"name"`
	Amount                int64       `json:"amount"`
	Spent                 int64       `json:"spent"`
	Balance               int64       `json:"balance"`
	UtilizationPercentage float64     `json:"utilization_percentage"`
	Tier                  WarningTier `json:"tier"`
}
