package budget

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal"
)

// Budget is a fiscal-year spending plan owned by an MDA. It moves through
// the approval workflow before it can be published.
type Budget struct {
	ID                int64      `json:"id" gorm:"primaryKey"`
	MDAID             int64      `json:"mda_id" gorm:"column:mda_id;not null"`
	FiscalYear        int        `json:"fiscal_year" gorm:"column:fiscal_year;not null"`
	Title             string     `json:"title" gorm:"not null"`
	TotalAmount       int64      `json:"total_amount" gorm:"column:total_amount;not null"`
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
	PublishedAt       *time.Time `json:"published_at,omitempty" gorm:"column:published_at"`
	CreatedAt         time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Budget) TableName() string {
	return "budgets"
}

// BudgetLineItem is a budget's allocation bucket. Amount is the committed
// ceiling; Balance is a cache of amount minus cumulative approved
// expenditures and is never trusted for correctness checks.
type BudgetLineItem struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	BudgetID  int64     `json:"budget_id" gorm:"column:budget_id;not null"`
	Code      string    `json:"code" gorm:"not null"`
	Name      string    `json:"name" gorm:"not null"`
	Category  string    `json:"category" gorm:"not null"`
	Amount    int64     `json:"amount" gorm:"not null"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (BudgetLineItem) TableName() string {
	return "budget_line_items"
}

// Budget status lifecycle
const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusPublished       = "published"
)

// Line item categories
const (
	CategoryPersonnel = "personnel"
	CategoryOverhead  = "overhead"
	CategoryRecurrent = "recurrent"
	CategoryCapital   = "capital"
)

func ValidCategory(category string) bool {
	switch category {
	case CategoryPersonnel, CategoryOverhead, CategoryRecurrent, CategoryCapital:
		return true
	}
	return false
}

// WarningTier classifies line item utilization for early warnings.
type WarningTier string

const (
	TierNormal   WarningTier = "normal"
	TierMedium   WarningTier = "medium"
	TierHigh     WarningTier = "high"
	TierCritical WarningTier = "critical"
)

// Utilization thresholds in percent. Boundaries are inclusive: exactly 75%
// classifies as medium.
const (
	ThresholdMedium   = 75.0
	ThresholdHigh     = 85.0
	ThresholdCritical = 95.0
)

// ClassifyUtilization returns the highest tier whose threshold is met.
func ClassifyUtilization(percentage float64) WarningTier {
	switch {
	case percentage >= ThresholdCritical:
		return TierCritical
	case percentage >= ThresholdHigh:
		return TierHigh
	case percentage >= ThresholdMedium:
		return TierMedium
	default:
		return TierNormal
	}
}

// UtilizationPercentage computes spent/amount*100. A zero amount yields 0
// by convention rather than dividing by zero.
func UtilizationPercentage(amount, spent int64) float64 {
	if amount == 0 {
		return 0
	}
	return float64(spent) / float64(amount) * 100
}

// ThresholdWarning is the structured payload returned when a line item
// crosses a warning tier.
type ThresholdWarning struct {
	LineItemID int64       `json:"line_item_id"`
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Tier       WarningTier `json:"tier"`
	Percentage float64     `json:"percentage"`
	Amount     int64       `json:"amount"`
	Balance    int64       `json:"balance"`
}

type Repository interface {
	// Create persists the budget and its initial line items in one
	// transaction so total_amount never disagrees with the items. The
	// total is what approval chains tier on.
	Create(b *Budget, items []*BudgetLineItem) error
	GetByID(id int64) (*Budget, error)
	List(mdaID int64, fiscalYear int, limit, offset int) ([]*Budget, error)
	Update(b *Budget) error

	// AddLineItem inserts the item and bumps the owning budget's
	// total_amount in the same transaction.
	AddLineItem(li *BudgetLineItem) error
	GetLineItem(id int64) (*BudgetLineItem, error)
	ListLineItems(budgetID int64) ([]*BudgetLineItem, error)
	UpdateLineItemBalance(id int64, balance int64) error

	// SumApprovedExpenditures is the live source of truth for a line
	// item's spend: the cached balance column is derived from it.
	SumApprovedExpenditures(lineItemID int64) (int64, error)
}

var (
	ErrBudgetNotFound   = internal.NewNotFoundError("Budget not found", internal.ErrCodeBudgetNotFound)
	ErrLineItemNotFound = internal.NewNotFoundError("Budget line item not found", internal.ErrCodeLineItemNotFound)
	ErrNotApproved      = internal.NewValidationError("budget must be approved before publishing", internal.ErrCodeInvalidStatus)
	ErrNoLineItems      = internal.NewValidationError("budget has no line items", internal.ErrCodeValidationFailed)
)
