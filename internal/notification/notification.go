package notification

import (
	"encoding/json"
	"time"

	"github.com/civicworks/revenue-tracker/internal"
)

// Notification is an in-app message for a single user, produced by event
// subscribers. Delivery is best-effort: a failed insert is logged and
// never surfaces to the action that triggered it.
type Notification struct {
	ID        int64           `json:"id" gorm:"primaryKey"`
	UserID    int64           `json:"user_id" gorm:"column:user_id;not null"`
	Kind      string          `json:"kind" gorm:"not null"`
	Title     string          `json:"title" gorm:"not null"`
	Body      string          `json:"body"`
	Metadata  json.RawMessage `json:"metadata,omitempty" gorm:"type:jsonb"`
	ReadAt    *time.Time      `json:"read_at,omitempty" gorm:"column:read_at"`
	CreatedAt time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Notification kinds
const (
	KindApprovalRequested = "approval_requested"
	KindApproved          = "approved"
	KindRejected          = "rejected"
	KindThresholdWarning  = "threshold_warning"
)

type Repository interface {
	Create(n *Notification) error
	GetByID(id int64) (*Notification, error)
	ListByUser(userID int64, unreadOnly bool, limit, offset int) ([]*Notification, error)
	MarkRead(id, userID int64) error
	// UserIDsWithRolesInMDA resolves threshold-warning fanout targets.
	UserIDsWithRolesInMDA(roles []string, mdaID int64) ([]int64, error)
}

var ErrNotificationNotFound = internal.NewNotFoundError("Notification not found", internal.ErrCodeNotificationNotFound)
