package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/civicworks/revenue-tracker/internal/auth"
	"github.com/civicworks/revenue-tracker/internal/core/events"
)

// thresholdFanoutRoles receive budget early warnings for their MDA.
var thresholdFanoutRoles = []string{auth.RoleAdmin, auth.RoleBudgetManager, auth.RoleDirector}

// Subscriber turns workflow and threshold events into in-app
// notifications. Handlers never return errors upward; the bus logs them.
type Subscriber struct {
	service *Service
	logger  *slog.Logger
}

func NewSubscriber(service *Service, logger *slog.Logger) *Subscriber {
	return &Subscriber{service: service, logger: logger}
}

// Register attaches all notification handlers to the bus.
func (s *Subscriber) Register(bus *events.EventBus) {
	bus.Subscribe(events.EventTypeWorkflowSubmitted, s.handleWorkflow)
	bus.Subscribe(events.EventTypeWorkflowAdvanced, s.handleWorkflow)
	bus.Subscribe(events.EventTypeWorkflowApproved, s.handleWorkflow)
	bus.Subscribe(events.EventTypeWorkflowRejected, s.handleWorkflow)
	bus.Subscribe(events.EventTypeBudgetThreshold, s.handleThreshold)
}

func (s *Subscriber) handleWorkflow(ctx context.Context, event events.Event) error {
	we, ok := event.(*events.WorkflowEvent)
	if !ok {
		s.logger.Warn("unexpected event payload", "event_type", event.EventType())
		return nil
	}

	var kind, title, body string
	switch we.EventType() {
	case events.EventTypeWorkflowSubmitted, events.EventTypeWorkflowAdvanced:
		kind = KindApprovalRequested
		title = fmt.Sprintf("%s #%d awaits your approval", we.EntityKind, we.EntityID)
		body = fmt.Sprintf("You are the current approver at step %d.", we.Step)
	case events.EventTypeWorkflowApproved:
		kind = KindApproved
		title = fmt.Sprintf("%s #%d was approved", we.EntityKind, we.EntityID)
		body = "All approval steps are complete."
	case events.EventTypeWorkflowRejected:
		kind = KindRejected
		title = fmt.Sprintf("%s #%d was rejected", we.EntityKind, we.EntityID)
		body = we.Reason
	default:
		return nil
	}

	s.service.Notify(we.NotifyUserID, kind, title, body, map[string]interface{}{
		"entity_kind": we.EntityKind,
		"entity_id":   we.EntityID,
		"actor_id":    we.ActorID,
		"step":        we.Step,
	})
	return nil
}

func (s *Subscriber) handleThreshold(ctx context.Context, event events.Event) error {
	te, ok := event.(*events.BudgetThresholdEvent)
	if !ok {
		s.logger.Warn("unexpected event payload", "event_type", event.EventType())
		return nil
	}

	title := fmt.Sprintf("Budget line %s at %.1f%% utilization", te.Code, te.Percentage)
	body := fmt.Sprintf("%s (%s) has reached the %s warning tier. Remaining balance: %d.",
		te.Name, te.Code, te.Tier, te.Balance)

	s.service.NotifyRolesInMDA(thresholdFanoutRoles, te.MDAID, KindThresholdWarning, title, body, map[string]interface{}{
		"line_item_id": te.LineItemID,
		"tier":         te.Tier,
		"percentage":   te.Percentage,
		"amount":       te.Amount,
		"balance":      te.Balance,
	})
	return nil
}
