package budget

import (
	"context"
	"log/slog"
	"time"

	"github.com/civicworks/revenue-tracker/internal"
	"github.com/civicworks/revenue-tracker/internal/core/events"
	"github.com/civicworks/revenue-tracker/internal/transport/metrics"
)

// Service handles budget business logic: drafting, line item allocation and
// the balance / early-warning calculator.
type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) CreateBudget(dto CreateBudgetDTO) (*Budget, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("budget validation failed", "error", err)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	var total int64
	items := make([]*BudgetLineItem, 0, len(dto.LineItems))
	for _, liDTO := range dto.LineItems {
		total += liDTO.Amount
		items = append(items, &BudgetLineItem{
			Code:     liDTO.Code,
			Name:     liDTO.Name,
			Category: liDTO.Category,
			Amount:   liDTO.Amount,
			Balance:  liDTO.Amount,
		})
	}

	b := &Budget{
		MDAID:       dto.MDAID,
		FiscalYear:  dto.FiscalYear,
		Title:       dto.Title,
		TotalAmount: total,
		Status:      StatusDraft,
	}

	if err := s.repo.Create(b, items); err != nil {
		s.logger.Error("failed to create budget", "error", err, "mda_id", dto.MDAID)
		return nil, internal.NewInternalError("failed to create budget", err)
	}

	s.logger.Info("budget created",
		"budget_id", b.ID,
		"mda_id", b.MDAID,
		"fiscal_year", b.FiscalYear,
		"total_amount", b.TotalAmount)

	return b, nil
}

func (s *Service) GetBudget(id int64) (*Budget, error) {
	b, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrBudgetNotFound
	}
	return b, nil
}

func (s *Service) ListBudgets(mdaID int64, fiscalYear int, limit, offset int) ([]*Budget, error) {
	return s.repo.List(mdaID, fiscalYear, limit, offset)
}

// PublishBudget moves an approved budget to published. Only the approved
// status may be published.
func (s *Service) PublishBudget(id int64) (*Budget, error) {
	b, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrBudgetNotFound
	}

	if b.Status != StatusApproved {
		return nil, ErrNotApproved
	}

	b.Status = StatusPublished
	now := time.Now()
	b.PublishedAt = &now
	if err := s.repo.Update(b); err != nil {
		s.logger.Error("failed to publish budget", "error", err, "budget_id", id)
		return nil, internal.NewInternalError("failed to publish budget", err)
	}

	s.logger.Info("budget published", "budget_id", id)
	return b, nil
}

func (s *Service) AddLineItem(budgetID int64, dto CreateLineItemDTO) (*BudgetLineItem, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	b, err := s.repo.GetByID(budgetID)
	if err != nil {
		return nil, ErrBudgetNotFound
	}

	// Line items are fixed once a budget enters the approval chain.
	if b.Status != StatusDraft {
		return nil, internal.NewValidationError("line items can only be added to a draft budget", internal.ErrCodeInvalidStatus)
	}

	li := &BudgetLineItem{
		BudgetID: budgetID,
		Code:     dto.Code,
		Name:     dto.Name,
		Category: dto.Category,
		Amount:   dto.Amount,
		Balance:  dto.Amount,
	}

	if err := s.repo.AddLineItem(li); err != nil {
		s.logger.Error("failed to add line item", "error", err, "budget_id", budgetID)
		return nil, internal.NewInternalError("failed to add line item", err)
	}

	return li, nil
}

func (s *Service) ListLineItems(budgetID int64) ([]*BudgetLineItem, error) {
	if _, err := s.repo.GetByID(budgetID); err != nil {
		return nil, ErrBudgetNotFound
	}
	return s.repo.ListLineItems(budgetID)
}

// ComputeUtilization recomputes a line item's live balance from the sum of
// approved expenditures and refreshes the cached balance column.
func (s *Service) ComputeUtilization(lineItemID int64) (*UtilizationDTO, error) {
	li, err := s.repo.GetLineItem(lineItemID)
	if err != nil {
		return nil, ErrLineItemNotFound
	}

	spent, err := s.repo.SumApprovedExpenditures(lineItemID)
	if err != nil {
		s.logger.Error("failed to sum approved expenditures", "error", err, "line_item_id", lineItemID)
		return nil, internal.NewInternalError("failed to compute utilization", err)
	}

	balance := li.Amount - spent
	if balance != li.Balance {
		if err := s.repo.UpdateLineItemBalance(lineItemID, balance); err != nil {
			s.logger.Warn("failed to refresh cached balance", "error", err, "line_item_id", lineItemID)
		}
	}

	percentage := UtilizationPercentage(li.Amount, spent)

	return &UtilizationDTO{
		LineItemID:            li.ID,
		Code:                  li.Code,
		Name:                  li.Name,
		Amount:                li.Amount,
		Spent:                 spent,
		Balance:               balance,
		UtilizationPercentage: percentage,
		Tier:                  ClassifyUtilization(percentage),
	}, nil
}

// CheckThresholds recomputes utilization and, when a warning tier is
// crossed, publishes a threshold event for notification fanout. Returns nil
// when utilization is normal.
func (s *Service) CheckThresholds(ctx context.Context, lineItemID int64) (*ThresholdWarning, error) {
	util, err := s.ComputeUtilization(lineItemID)
	if err != nil {
		return nil, err
	}

	if util.Tier == TierNormal {
		return nil, nil
	}

	li, err := s.repo.GetLineItem(lineItemID)
	if err != nil {
		return nil, ErrLineItemNotFound
	}

	b, err := s.repo.GetByID(li.BudgetID)
	if err != nil {
		return nil, ErrBudgetNotFound
	}

	warning := &ThresholdWarning{
		LineItemID: util.LineItemID,
		Code:       util.Code,
		Name:       util.Name,
		Tier:       util.Tier,
		Percentage: util.UtilizationPercentage,
		Amount:     util.Amount,
		Balance:    util.Balance,
	}

	s.logger.Warn("budget threshold crossed",
		"line_item_id", lineItemID,
		"tier", warning.Tier,
		"percentage", warning.Percentage,
		"balance", warning.Balance)

	metrics.ObserveThresholdWarning(string(warning.Tier))

	if s.bus != nil {
		_ = s.bus.Publish(ctx, events.NewBudgetThresholdEvent(
			li.ID, b.MDAID, li.Code, li.Name,
			string(warning.Tier), warning.Percentage, li.Amount, warning.Balance))
	}

	return warning, nil
}
