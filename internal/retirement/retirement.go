package retirement

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal"
)

// ExpenditureRetirement accounts for how an approved expenditure was
// actually spent. One retirement per expenditure; the unretired balance is
// the expenditure amount minus the amount retired.
type ExpenditureRetirement struct {
	ID               int64      `json:"id" gorm:"primaryKey"`
	ExpenditureID    int64      `json:"expenditure_id" gorm:"column:expenditure_id;uniqueIndex;not null"`
	AmountRetired    int64      `json:"amount_retired" gorm:"column:amount_retired;not null"`
	BalanceUnretired int64      `json:"balance_unretired" gorm:"column:balance_unretired"`
	Status           string     `json:"status" gorm:"default:draft"`
	SubmittedAt      *time.Time `json:"submitted_at,omitempty" gorm:"column:submitted_at"`
	SubmittedBy      *int64     `json:"submitted_by,omitempty" gorm:"column:submitted_by"`
	ReviewedAt       *time.Time `json:"reviewed_at,omitempty" gorm:"column:reviewed_at"`
	ReviewedBy       *int64     `json:"reviewed_by,omitempty" gorm:"column:reviewed_by"`
	RejectionReason  string     `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	CompletedAt      *time.Time `json:"completed_at,omitempty" gorm:"column:completed_at"`
	CreatedAt        time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (ExpenditureRetirement) TableName() string {
	return "expenditure_retirements"
}

// Retirement status lifecycle
const (
	StatusDraft       = "draft"
	StatusSubmitted   = "submitted"
	StatusUnderReview = "under_review"
	StatusApproved    = "approved"
	StatusRejected    = "rejected"
	StatusCompleted   = "completed"
)

type Repository interface {
	Create(r *ExpenditureRetirement) error
	GetByID(id int64) (*ExpenditureRetirement, error)
	GetByExpenditureID(expenditureID int64) (*ExpenditureRetirement, error)
	List(status string, limit, offset int) ([]*ExpenditureRetirement, error)
	Update(r *ExpenditureRetirement) error
}

var (
	ErrRetirementNotFound = internal.NewNotFoundError("Retirement not found", internal.ErrCodeRetirementNotFound)
	ErrOverRetirement     = internal.NewValidationError("retired amount exceeds expenditure amount", internal.ErrCodeOverRetirement)
	ErrReasonRequired     = internal.NewValidationError("rejection reason is required", internal.ErrCodeMissingReason)
	ErrAlreadyRetired     = internal.NewConflictError("expenditure already has a retirement", internal.ErrCodeAlreadyPending)
	ErrInvalidTransition  = internal.NewValidationError("invalid retirement status transition", internal.ErrCodeInvalidStatus)
)
