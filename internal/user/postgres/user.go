package postgres

import (
	"errors"
	"fmt"

	"github.com/civicworks/revenue-tracker/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id int64) (*user.User, error) {
	var u user.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var u user.User
	err := r.db.Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(mdaID int64, limit, offset int) ([]*user.User, error) {
	q := r.db.Model(&user.User{})
	if mdaID > 0 {
		q = q.Where("mda_id = ?", mdaID)
	}

	var users []*user.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Update(u *user.User) error {
	return r.db.Save(u).Error
}

func (r *UserRepository) ReplaceRoles(userID int64, roles []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var roleIDs []int64
		if len(roles) > 0 {
			if err := tx.Raw("SELECT id FROM roles WHERE name IN ?", roles).Scan(&roleIDs).Error; err != nil {
				return err
			}
			if len(roleIDs) != len(roles) {
				return user.ErrUnknownRole
			}
		}

		if err := tx.Exec("DELETE FROM user_roles WHERE user_id = ?", userID).Error; err != nil {
			return err
		}

		for _, roleID := range roleIDs {
			if err := tx.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)", userID, roleID).Error; err != nil {
				return fmt.Errorf("assign role %d: %w", roleID, err)
			}
		}
		return nil
	})
}

func (r *UserRepository) RolesFor(userID int64) ([]string, error) {
	var roles []string
	err := r.db.Raw(`
		SELECT r.name FROM roles r
		JOIN user_roles ur ON ur.role_id = r.id
		WHERE ur.user_id = ?
		ORDER BY r.name
	`, userID).Scan(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}
