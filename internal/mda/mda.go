package mda

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal"
)

// MDA is a Ministry, Department or Agency: the organizational unit that
// owns budgets and raises expenditures.
type MDA struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Code      string    `json:"code" gorm:"uniqueIndex;not null"`
	Sector    string    `json:"sector"`
	ParentID  *int64    `json:"parent_id,omitempty" gorm:"column:parent_id"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (MDA) TableName() string {
	return "mdas"
}

type Repository interface {
	Create(m *MDA) error
	GetByID(id int64) (*MDA, error)
	GetByCode(code string) (*MDA, error)
	List(limit, offset int) ([]*MDA, error)
	Update(m *MDA) error
	Deactivate(id int64) error
}

var ErrMDANotFound = internal.NewNotFoundError("MDA not found", internal.ErrCodeMDANotFound)
