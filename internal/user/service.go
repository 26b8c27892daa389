package user

import (
	"log/slog"
)

// PasswordHasher is satisfied by the auth service.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{repo: repo, hasher: hasher, logger: logger}
}

func (s *Service) CreateUser(dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: hash,
		MDAID:        dto.MDAID,
		IsActive:     true,
	}
	if err := s.repo.Create(u); err != nil {
		return nil, err
	}

	if len(dto.Roles) > 0 {
		if err := s.repo.ReplaceRoles(u.ID, dto.Roles); err != nil {
			return nil, err
		}
		u.Roles = dto.Roles
	}

	s.logger.Info("user created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

func (s *Service) GetUser(id int64) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	roles, err := s.repo.RolesFor(id)
	if err != nil {
		return nil, err
	}
	u.Roles = roles

	return u, nil
}

func (s *Service) ListUsers(mdaID int64, limit, offset int) ([]*User, error) {
	return s.repo.List(mdaID, limit, offset)
}

func (s *Service) UpdateUser(id int64, dto UpdateUserDTO) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.MDAID != nil {
		u.MDAID = dto.MDAID
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}

	if err := s.repo.Update(u); err != nil {
		return nil, err
	}

	if dto.Roles != nil {
		if err := s.repo.ReplaceRoles(id, *dto.Roles); err != nil {
			return nil, err
		}
		u.Roles = *dto.Roles
	} else {
		roles, err := s.repo.RolesFor(id)
		if err != nil {
			return nil, err
		}
		u.Roles = roles
	}

	s.logger.Info("user updated", "user_id", u.ID)
	return u, nil
}
