package workflow

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/civicworks/revenue-tracker/internal"
	"gorm.io/gorm"
)

// EntityKind is the closed set of entities the approval engine drives.
type EntityKind string

const (
	KindBudget      EntityKind = "budget"
	KindExpenditure EntityKind = "expenditure"
)

func ValidKind(kind EntityKind) bool {
	return kind == KindBudget || kind == KindExpenditure
}

// EntityState is the workflow-relevant projection of a budget or
// expenditure row, loaded and persisted by the kind's EntityStore.
type EntityState struct {
	ID                int64
	MDAID             int64
	Amount            int64
	Status            string
	CurrentApproverID *int64
	CurrentStep       int
	SubmittedBy       *int64
}

// Entity status values shared by both kinds. Submission moves a draft
// straight to pending_approval; the submission itself is recorded as a
// history action, not an entity status.
const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
	StatusPublished       = "published"
)

// IsTerminal reports whether no further workflow transition is defined for
// the status. Rejected entities may re-enter via a fresh submission, so
// rejection is terminal for approve/reject but not for submit.
func IsTerminal(status string) bool {
	return status == StatusApproved || status == StatusRejected || status == StatusPublished
}

// EntityStore loads and mutates one entity kind inside the engine's
// transaction. Hooks allow kind-specific validation: expenditures re-check
// the line item balance under a row lock before final approval.
type EntityStore interface {
	Kind() EntityKind
	Load(tx *gorm.DB, id int64) (*EntityState, error)
	ValidateSubmit(tx *gorm.DB, st *EntityState) error
	MarkPending(tx *gorm.DB, st *EntityState, approverID, userID int64) error
	Advance(tx *gorm.DB, st *EntityState, approverID int64, step int) error
	FinalizeApprove(tx *gorm.DB, st *EntityState, userID int64) error
	MarkRejected(tx *gorm.DB, st *EntityState, userID int64, reason string) error
}

// ApprovalHistory is the append-only audit log of workflow transitions.
// The submission row freezes the ordered approver chain in its metadata.
type ApprovalHistory struct {
	ID         int64           `json:"id" gorm:"primaryKey"`
	EntityType string          `json:"entity_type" gorm:"column:entity_type;not null"`
	EntityID   int64           `json:"entity_id" gorm:"column:entity_id;not null"`
	Action     string          `json:"action" gorm:"not null"`
	ActorID    int64           `json:"actor_id" gorm:"column:actor_id;not null"`
	Step       int             `json:"step"`
	Comment    string          `json:"comment,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (ApprovalHistory) TableName() string {
	return "approval_history"
}

// History actions
const (
	ActionSubmitted = "submitted"
	ActionApproved  = "approved"
	ActionRejected  = "rejected"
)

// ChainMetadata is the frozen approver chain stored on the submission row.
type ChainMetadata struct {
	ApproverIDs []int64 `json:"approver_ids"`
}

type HistoryRepository interface {
	Create(tx *gorm.DB, h *ApprovalHistory) error
	// LatestSubmission returns the most recent submission row for the
	// entity; its metadata carries the chain the engine replays.
	LatestSubmission(tx *gorm.DB, kind EntityKind, entityID int64) (*ApprovalHistory, error)
	List(kind EntityKind, entityID int64, limit, offset int) ([]*ApprovalHistory, error)
}

// ApproverDirectory resolves the user holding a role within an MDA.
// Missing tiers are reported via found=false and silently skipped.
type ApproverDirectory interface {
	FindApprover(tx *gorm.DB, role string, mdaID int64) (userID int64, found bool, err error)
}

// TxRunner is satisfied by *gorm.DB; mocks run the callback directly.
type TxRunner interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// ActionOptions carries optional approve/reject parameters.
type ActionOptions struct {
	Comment       string
	Reason        string
	AdminOverride bool
}

// Result is the outcome of a workflow call: the updated entity state and
// the history row recorded for the transition.
type Result struct {
	Entity  *EntityState     `json:"entity"`
	History *ApprovalHistory `json:"history"`
}

var (
	ErrUnknownKind        = internal.NewValidationError("unknown entity type", internal.ErrCodeValidationFailed)
	ErrAlreadyPending     = internal.NewConflictError("entity is already pending approval", internal.ErrCodeAlreadyPending)
	ErrAlreadyFinal       = internal.NewConflictError("entity is already in a final status", internal.ErrCodeAlreadyFinal)
	ErrNotPending         = internal.NewValidationError("entity is not pending approval", internal.ErrCodeInvalidStatus)
	ErrNoApproversFound   = internal.NewValidationError("no approvers found for entity", internal.ErrCodeNoApproversFound)
	ErrNotCurrentApprover = internal.NewForbiddenError("user is not the current approver", internal.ErrCodeNotCurrentApprover)
	ErrChainMissing       = internal.NewInternalError("approval chain metadata missing", nil)
)
