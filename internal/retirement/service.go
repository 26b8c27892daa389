package retirement

import (
	"log/slog"
	"time"

	"github.com/civicworks/revenue-tracker/internal/expenditure"
)

// ExpenditureReader is the slice of the expenditure repository the
// retirement service needs.
type ExpenditureReader interface {
	GetByID(id int64) (*expenditure.Expenditure, error)
}

type Service struct {
	repo         Repository
	expenditures ExpenditureReader
	logger       *slog.Logger
}

func NewService(repo Repository, expenditures ExpenditureReader, logger *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		expenditures: expenditures,
		logger:       logger,
	}
}

// CreateRetirement opens a draft retirement for an approved expenditure.
// The retired amount may never exceed the expenditure amount.
func (s *Service) CreateRetirement(dto CreateRetirementDTO, userID int64) (*ExpenditureRetirement, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exp, err := s.expenditures.GetByID(dto.ExpenditureID)
	if err != nil {
		return nil, err
	}
	if exp.Status != expenditure.StatusApproved {
		return nil, ErrInvalidTransition
	}
	if dto.AmountRetired > exp.Amount {
		return nil, ErrOverRetirement
	}

	if existing, err := s.repo.GetByExpenditureID(dto.ExpenditureID); err == nil && existing != nil {
		return nil, ErrAlreadyRetired
	}

	r := &ExpenditureRetirement{
		ExpenditureID:    dto.ExpenditureID,
		AmountRetired:    dto.AmountRetired,
		BalanceUnretired: exp.Amount - dto.AmountRetired,
		Status:           StatusDraft,
		SubmittedBy:      &userID,
	}
	if err := s.repo.Create(r); err != nil {
		return nil, err
	}

	s.logger.Info("retirement created",
		"retirement_id", r.ID,
		"expenditure_id", r.ExpenditureID,
		"amount_retired", r.AmountRetired)

	return r, nil
}

func (s *Service) GetRetirement(id int64) (*ExpenditureRetirement, error) {
	return s.repo.GetByID(id)
}

func (s *Service) ListRetirements(status string, limit, offset int) ([]*ExpenditureRetirement, error) {
	return s.repo.List(status, limit, offset)
}

// UpdateRetirement adjusts the retired amount while the record is still a
// draft. The over-retirement invariant is re-checked here as well.
func (s *Service) UpdateRetirement(id int64, dto UpdateRetirementDTO) (*ExpenditureRetirement, error) {
	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusDraft {
		return nil, ErrInvalidTransition
	}

	if dto.AmountRetired != nil {
		exp, err := s.expenditures.GetByID(r.ExpenditureID)
		if err != nil {
			return nil, err
		}
		if *dto.AmountRetired <= 0 || *dto.AmountRetired > exp.Amount {
			return nil, ErrOverRetirement
		}
		r.AmountRetired = *dto.AmountRetired
		r.BalanceUnretired = exp.Amount - *dto.AmountRetired
	}

	if err := s.repo.Update(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) SubmitRetirement(id, userID int64) (*ExpenditureRetirement, error) {
	return s.transition(id, StatusSubmitted, userID, "", []string{StatusDraft})
}

func (s *Service) ReviewRetirement(id, userID int64) (*ExpenditureRetirement, error) {
	return s.transition(id, StatusUnderReview, userID, "", []string{StatusSubmitted})
}

func (s *Service) ApproveRetirement(id, userID int64) (*ExpenditureRetirement, error) {
	return s.transition(id, StatusApproved, userID, "", []string{StatusUnderReview})
}

// RejectRetirement requires a reason; review without one is not auditable.
func (s *Service) RejectRetirement(id, userID int64, reason string) (*ExpenditureRetirement, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.transition(id, StatusRejected, userID, reason, []string{StatusSubmitted, StatusUnderReview})
}

func (s *Service) CompleteRetirement(id, userID int64) (*ExpenditureRetirement, error) {
	return s.transition(id, StatusCompleted, userID, "", []string{StatusApproved})
}

func (s *Service) transition(id int64, to string, userID int64, reason string, from []string) (*ExpenditureRetirement, error) {
	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, f := range from {
		if r.Status == f {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidTransition
	}

	now := time.Now()
	r.Status = to
	switch to {
	case StatusSubmitted:
		r.SubmittedAt = &now
		r.SubmittedBy = &userID
	case StatusUnderReview, StatusApproved:
		r.ReviewedAt = &now
		r.ReviewedBy = &userID
	case StatusRejected:
		r.ReviewedAt = &now
		r.ReviewedBy = &userID
		r.RejectionReason = reason
	case StatusCompleted:
		r.CompletedAt = &now
	}

	if err := s.repo.Update(r); err != nil {
		return nil, err
	}

	s.logger.Info("retirement status changed",
		"retirement_id", r.ID,
		"status", r.Status,
		"user_id", userID)

	return r, nil
}
