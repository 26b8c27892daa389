package expenditure

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal"
)

// Expenditure is a disbursement request against a budget line item. It
// follows the same approval workflow as budgets before funds are committed.
type Expenditure struct {
	ID                int64      `json:"id" gorm:"primaryKey"`
	LineItemID        int64      `json:"line_item_id" gorm:"column:line_item_id;not null"`
	MDAID             int64      `json:"mda_id" gorm:"column:mda_id;not null"`
	RequestedBy       int64      `json:"requested_by" gorm:"column:requested_by;not null"`
	Amount            int64      `json:"amount" gorm:"not null"`
	Description       string     `json:"description" gorm:"not null"`
	Status            string     `json:"status" gorm:"default:draft"`
	CurrentApproverID *int64     `json:"current_approver_id,omitempty" gorm:"column:current_approver_id"`
	CurrentStep       int        `json:"current_step" gorm:"column:current_step;default:0"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty" gorm:"column:submitted_at"`
	SubmittedBy       *int64     `json:"submitted_by,omitempty" gorm:"column:submitted_by"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty" gorm:"column:approved_at"`
	ApprovedBy        *int64     `json:"approved_by,omitempty" gorm:"column:approved_by"`
	RejectedAt        *time.Time `json:"rejected_at,omitempty" gorm:"column:rejected_at"`
	RejectedBy        *int64     `json:"rejected_by,omitempty" gorm:"column:rejected_by"`
	RejectionReason   string     `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	CreatedAt         time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Expenditure) TableName() string {
	return "expenditures"
}

// Expenditure status lifecycle
const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

type Repository interface {
	Create(e *Expenditure) error
	GetByID(id int64) (*Expenditure, error)
	List(mdaID, lineItemID int64, status string, limit, offset int) ([]*Expenditure, error)
	Update(e *Expenditure) error
}

var (
	ErrExpenditureNotFound = internal.NewNotFoundError("Expenditure not found", internal.ErrCodeExpenditureNotFound)
	ErrInsufficientBalance = internal.NewValidationError("expenditure amount exceeds line item balance", internal.ErrCodeInsufficientBalance)
)
