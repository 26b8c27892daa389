package postgres

import (
	"github.com/civicworks/revenue-tracker/internal/auth"
	"gorm.io/gorm"
)

// AuthRepository implements auth.UserRepository against the users/roles schema.
type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) auth.UserRepository {
	return &AuthRepository{db: db}
}

type credentialsRow struct {
	ID           int64
	PasswordHash string
	IsActive     bool
}

func (r *AuthRepository) GetCredentialsByEmail(email string) (string, int64, bool, error) {
	var row credentialsRow
	err := r.db.Raw(
		"SELECT id, password_hash, is_active FROM users WHERE email = ?", email,
	).Scan(&row).Error
	if err != nil {
		return "", 0, false, err
	}
	if row.ID == 0 {
		return "", 0, false, gorm.ErrRecordNotFound
	}
	return row.PasswordHash, row.ID, row.IsActive, nil
}

type userRow struct {
	ID       int64
	Email    string
	Name     string
	MDAID    *int64 `gorm:"column:mda_id"`
	IsActive bool
}

func (r *AuthRepository) GetUserWithPermissions(userID int64) (*auth.ContextUser, error) {
	var row userRow
	err := r.db.Raw(
		"SELECT id, email, name, mda_id, is_active FROM users WHERE id = ?", userID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	if !row.IsActive {
		return nil, auth.ErrUserInactive
	}

	var roles []string
	err = r.db.Raw(`
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.name`, userID,
	).Scan(&roles).Error
	if err != nil {
		return nil, err
	}

	var permissions []string
	err = r.db.Raw(`
		SELECT DISTINCT p.name FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = ?
		ORDER BY p.name`, userID,
	).Scan(&permissions).Error
	if err != nil {
		return nil, err
	}

	return &auth.ContextUser{
		ID:          row.ID,
		Email:       row.Email,
		Name:        row.Name,
		MDAID:       row.MDAID,
		Roles:       roles,
		Permissions: permissions,
	}, nil
}
