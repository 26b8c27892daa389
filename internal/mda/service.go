package mda

import (
	"log/slog"

	"github.com/civicworks/revenue-tracker/internal"
)

// Service handles MDA business logic
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) CreateMDA(dto CreateMDADTO) (*MDA, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("mda validation failed", "error", err)
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	if existing, err := s.repo.GetByCode(dto.Code); err == nil && existing != nil {
		return nil, internal.NewConflictError("MDA code already exists", internal.ErrCodeValidationFailed)
	}

	m := &MDA{
		Name:     dto.Name,
		Code:     dto.Code,
		Sector:   dto.Sector,
		ParentID: dto.ParentID,
		IsActive: true,
	}

	if err := s.repo.Create(m); err != nil {
		s.logger.Error("failed to create mda", "error", err, "code", dto.Code)
		return nil, internal.NewInternalError("failed to create MDA", err)
	}

	s.logger.Info("mda created", "mda_id", m.ID, "code", m.Code)
	return m, nil
}

func (s *Service) GetMDA(id int64) (*MDA, error) {
	m, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrMDANotFound
	}
	return m, nil
}

func (s *Service) ListMDAs(limit, offset int) ([]*MDA, error) {
	return s.repo.List(limit, offset)
}

func (s *Service) UpdateMDA(id int64, dto UpdateMDADTO) (*MDA, error) {
	if err := dto.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	m, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrMDANotFound
	}

	if dto.Name != nil {
		m.Name = *dto.Name
	}
	if dto.Sector != nil {
		m.Sector = *dto.Sector
	}
	if dto.ParentID != nil {
		m.ParentID = dto.ParentID
	}
	if dto.IsActive != nil {
		m.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(m); err != nil {
		s.logger.Error("failed to update mda", "error", err, "mda_id", id)
		return nil, internal.NewInternalError("failed to update MDA", err)
	}

	return m, nil
}

func (s *Service) DeactivateMDA(id int64) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return ErrMDANotFound
	}
	if err := s.repo.Deactivate(id); err != nil {
		s.logger.Error("failed to deactivate mda", "error", err, "mda_id", id)
		return internal.NewInternalError("failed to deactivate MDA", err)
	}
	s.logger.Info("mda deactivated", "mda_id", id)
	return nil
}
