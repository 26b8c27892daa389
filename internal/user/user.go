package user

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal"
)

// User is a system account. Permissions are derived from roles; roles are
// assigned per user and optionally scoped to an MDA via the user's mda_id.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	MDAID        *int64    `json:"mda_id,omitempty" gorm:"column:mda_id"`
	IsActive     bool      `json:"is_active" gorm:"column:is_active;default:true"`
	Roles        []string  `json:"roles,omitempty" gorm:"-"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

type Repository interface {
	Create(u *User) error
	GetByID(id int64) (*User, error)
	GetByEmail(email string) (*User, error)
	List(mdaID int64, limit, offset int) ([]*User, error)
	Update(u *User) error
	// ReplaceRoles sets the user's role set atomically. Unknown role
	// names fail the whole call.
	ReplaceRoles(userID int64, roles []string) error
	RolesFor(userID int64) ([]string, error)
}

var (
	ErrUserNotFound = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
	ErrEmailTaken   = internal.NewConflictError("email is already registered", internal.ErrCodeValidationFailed)
	ErrUnknownRole  = internal.NewValidationError("unknown role name", internal.ErrCodeValidationFailed)
)
