package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeWorkflowSubmitted = "workflow.submitted"
	EventTypeWorkflowAdvanced  = "workflow.advanced"
	EventTypeWorkflowApproved  = "workflow.approved"
	EventTypeWorkflowRejected  = "workflow.rejected"
	EventTypeBudgetThreshold   = "budget.threshold"
)

// WorkflowEvent covers every approval chain transition. Step is the
// zero-based chain position the event refers to; for EventTypeWorkflowAdvanced
// that is the step now waiting on NotifyUserID.
type WorkflowEvent struct {
	BaseEvent
	EntityKind   string `json:"entity_kind"`
	EntityID     int64  `json:"entity_id"`
	ActorID      int64  `json:"actor_id"`
	NotifyUserID int64  `json:"notify_user_id"`
	Step         int    `json:"step"`
	Reason       string `json:"reason,omitempty"`
}

func NewWorkflowEvent(eventType, entityKind string, entityID, actorID, notifyUserID int64, step int, reason string) *WorkflowEvent {
	return &WorkflowEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"entity_kind":    entityKind,
				"entity_id":      entityID,
				"actor_id":       actorID,
				"notify_user_id": notifyUserID,
				"step":           step,
				"reason":         reason,
			},
		},
		EntityKind:   entityKind,
		EntityID:     entityID,
		ActorID:      actorID,
		NotifyUserID: notifyUserID,
		Step:         step,
		Reason:       reason,
	}
}

// BudgetThresholdEvent fires when a line item's utilization crosses a
// warning tier. Fanned out to budget oversight roles within the MDA.
type BudgetThresholdEvent struct {
	BaseEvent
	LineItemID int64   `json:"line_item_id"`
	MDAID      int64   `json:"mda_id"`
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Tier       string  `json:"tier"`
	Percentage float64 `json:"percentage"`
	Amount     int64   `json:"amount"`
	Balance    int64   `json:"balance"`
}

func NewBudgetThresholdEvent(lineItemID, mdaID int64, code, name, tier string, percentage float64, amount, balance int64) *BudgetThresholdEvent {
	return &BudgetThresholdEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeBudgetThreshold,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"line_item_id": lineItemID,
				"mda_id":       mdaID,
				"code":         code,
				"name":         name,
				"tier":         tier,
				"percentage":   percentage,
				"amount":       amount,
				"balance":      balance,
			},
		},
		LineItemID: lineItemID,
		MDAID:      mdaID,
		Code:       code,
		Name:       name,
		Tier:       tier,
		Percentage: percentage,
		Amount:     amount,
		Balance:    balance,
	}
}
