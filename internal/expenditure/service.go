package expenditure

import (
	"log/slog"

	"github.com/civicworks/revenue-tracker/internal"
	"github.com/civicworks/revenue-tracker/internal/budget"
)

// BudgetReader is the slice of the budget repository the expenditure
// service needs to resolve line items to their owning budget.
type BudgetReader interface {
	GetLineItem(id int64) (*budget.BudgetLineItem, error)
	GetByID(id int64) (*budget.Budget, error)
}

// Service handles expenditure business logic. Workflow transitions
// (submit/approve/reject) go through the approval engine, not this service.
type Service struct {
	repo    Repository
	budgets BudgetReader
	logger  *slog.Logger
}

func NewService(repo Repository, budgets BudgetReader, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		budgets: budgets,
		logger:  logger,
	}
}

func (s *Service) CreateExpenditure(userID int64, dto CreateExpenditureDTO) (*Expenditure, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("expenditure validation failed", "error", err, "user_id", userID)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	li, err := s.budgets.GetLineItem(dto.LineItemID)
	if err != nil {
		return nil, budget.ErrLineItemNotFound
	}

	b, err := s.budgets.GetByID(li.BudgetID)
	if err != nil {
		return nil, budget.ErrBudgetNotFound
	}

	e := &Expenditure{
		LineItemID:  dto.LineItemID,
		MDAID:       b.MDAID,
		RequestedBy: userID,
		Amount:      dto.Amount,
		Description: dto.Description,
		Status:      StatusDraft,
	}

	if err := s.repo.Create(e); err != nil {
		s.logger.Error("failed to create expenditure", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to create expenditure", err)
	}

	s.logger.Info("expenditure created",
		"expenditure_id", e.ID,
		"line_item_id", e.LineItemID,
		"amount", e.Amount,
		"user_id", userID)

	return e, nil
}

func (s *Service) GetExpenditure(id int64) (*Expenditure, error) {
	e, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrExpenditureNotFound
	}
	return e, nil
}

func (s *Service) ListExpenditures(mdaID, lineItemID int64, status string, limit, offset int) ([]*Expenditure, error) {
	return s.repo.List(mdaID, lineItemID, status, limit, offset)
}
