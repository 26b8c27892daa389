package workflow

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/civicworks/revenue-tracker/internal"
	"github.com/civicworks/revenue-tracker/internal/core/events"
	"github.com/civicworks/revenue-tracker/internal/transport/metrics"
	"gorm.io/gorm"
)

// Engine drives the linear, role-ordered approval chain for budgets and
// expenditures. Every transition mutates the entity and appends a history
// row inside one transaction; notification side effects fire after commit
// and never affect the outcome.
type Engine struct {
	db        TxRunner
	stores    map[EntityKind]EntityStore
	history   HistoryRepository
	directory ApproverDirectory
	bus       *events.EventBus
	logger    *slog.Logger
}

func NewEngine(db TxRunner, history HistoryRepository, directory ApproverDirectory, bus *events.EventBus, logger *slog.Logger, stores ...EntityStore) *Engine {
	m := make(map[EntityKind]EntityStore, len(stores))
	for _, s := range stores {
		m[s.Kind()] = s
	}
	return &Engine{
		db:        db,
		stores:    m,
		history:   history,
		directory: directory,
		bus:       bus,
		logger:    logger,
	}
}

func (e *Engine) store(kind EntityKind) (EntityStore, error) {
	s, ok := e.stores[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	return s, nil
}

// SubmitForApproval moves an entity into the approval chain. The chain is
// determined once here and frozen into the submission history row; later
// approvals replay it rather than re-deriving it.
func (e *Engine) SubmitForApproval(ctx context.Context, kind EntityKind, entityID, userID int64) (*Result, error) {
	store, err := e.store(kind)
	if err != nil {
		return nil, err
	}

	var result *Result
	var firstApprover int64

	err = e.db.Transaction(func(tx *gorm.DB) error {
		st, err := store.Load(tx, entityID)
		if err != nil {
			return err
		}

		switch {
		case st.Status == StatusPendingApproval:
			return ErrAlreadyPending
		case st.Status == StatusApproved || st.Status == StatusPublished:
			return ErrAlreadyFinal
		}

		if err := store.ValidateSubmit(tx, st); err != nil {
			return err
		}

		chain, err := DetermineApprovers(tx, e.directory, st.MDAID, st.Amount)
		if err != nil {
			return internal.NewInternalError("failed to determine approvers", err)
		}
		if len(chain) == 0 {
			return ErrNoApproversFound
		}

		firstApprover = chain[0]
		if err := store.MarkPending(tx, st, firstApprover, userID); err != nil {
			return err
		}

		metadata, err := json.Marshal(ChainMetadata{ApproverIDs: chain})
		if err != nil {
			return internal.NewInternalError("failed to encode approver chain", err)
		}

		h := &ApprovalHistory{
			EntityType: string(kind),
			EntityID:   entityID,
			Action:     ActionSubmitted,
			ActorID:    userID,
			Step:       0,
			Metadata:   metadata,
		}
		if err := e.history.Create(tx, h); err != nil {
			return internal.NewInternalError("failed to record approval history", err)
		}

		result = &Result{Entity: st, History: h}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("entity submitted for approval",
		"entity_kind", kind,
		"entity_id", entityID,
		"submitted_by", userID,
		"first_approver", firstApprover)

	metrics.ObserveWorkflowTransition(string(kind), ActionSubmitted)
	e.publish(ctx, events.NewWorkflowEvent(
		events.EventTypeWorkflowSubmitted, string(kind), entityID, userID, firstApprover, 0, ""))

	return result, nil
}

// Approve records the current approver's decision. Intermediate approvals
// advance the pointer along the frozen chain; the final one finalizes the
// entity. Terminal entities are rejected outright.
func (e *Engine) Approve(ctx context.Context, kind EntityKind, entityID, userID int64, opts ActionOptions) (*Result, error) {
	store, err := e.store(kind)
	if err != nil {
		return nil, err
	}

	var result *Result
	var final bool
	var nextApprover, submitter int64
	var actedStep int

	err = e.db.Transaction(func(tx *gorm.DB) error {
		st, err := store.Load(tx, entityID)
		if err != nil {
			return err
		}

		if IsTerminal(st.Status) {
			return ErrAlreadyFinal
		}
		if st.Status != StatusPendingApproval {
			return ErrNotPending
		}
		if st.CurrentApproverID == nil || *st.CurrentApproverID != userID {
			return ErrNotCurrentApprover
		}

		chain, err := e.frozenChain(tx, kind, entityID)
		if err != nil {
			return err
		}

		actedStep = st.CurrentStep
		if st.SubmittedBy != nil {
			submitter = *st.SubmittedBy
		}

		if st.CurrentStep >= len(chain)-1 {
			final = true
			if err := store.FinalizeApprove(tx, st, userID); err != nil {
				return err
			}
		} else {
			nextApprover = chain[st.CurrentStep+1]
			if err := store.Advance(tx, st, nextApprover, st.CurrentStep+1); err != nil {
				return err
			}
		}

		h := &ApprovalHistory{
			EntityType: string(kind),
			EntityID:   entityID,
			Action:     ActionApproved,
			ActorID:    userID,
			Step:       actedStep,
			Comment:    opts.Comment,
		}
		if err := e.history.Create(tx, h); err != nil {
			return internal.NewInternalError("failed to record approval history", err)
		}

		result = &Result{Entity: st, History: h}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ObserveWorkflowTransition(string(kind), ActionApproved)

	if final {
		e.logger.Info("entity approved",
			"entity_kind", kind,
			"entity_id", entityID,
			"approved_by", userID)
		e.publish(ctx, events.NewWorkflowEvent(
			events.EventTypeWorkflowApproved, string(kind), entityID, userID, submitter, actedStep, ""))
	} else {
		e.logger.Info("approval advanced",
			"entity_kind", kind,
			"entity_id", entityID,
			"acted_by", userID,
			"next_approver", nextApprover,
			"next_step", actedStep+1)
		e.publish(ctx, events.NewWorkflowEvent(
			events.EventTypeWorkflowAdvanced, string(kind), entityID, userID, nextApprover, actedStep+1, ""))
	}

	return result, nil
}

// Reject terminates the workflow. Only the current approver may reject,
// unless the caller sets the admin override. A reason is accepted but not
// required here; retirement review enforces its own reason requirement.
func (e *Engine) Reject(ctx context.Context, kind EntityKind, entityID, userID int64, opts ActionOptions) (*Result, error) {
	store, err := e.store(kind)
	if err != nil {
		return nil, err
	}

	var result *Result
	var submitter int64

	err = e.db.Transaction(func(tx *gorm.DB) error {
		st, err := store.Load(tx, entityID)
		if err != nil {
			return err
		}

		if IsTerminal(st.Status) {
			return ErrAlreadyFinal
		}
		if st.Status != StatusPendingApproval {
			return ErrNotPending
		}

		isCurrent := st.CurrentApproverID != nil && *st.CurrentApproverID == userID
		if !isCurrent && !opts.AdminOverride {
			return ErrNotCurrentApprover
		}

		if st.SubmittedBy != nil {
			submitter = *st.SubmittedBy
		}

		actedStep := st.CurrentStep
		if err := store.MarkRejected(tx, st, userID, opts.Reason); err != nil {
			return err
		}

		h := &ApprovalHistory{
			EntityType: string(kind),
			EntityID:   entityID,
			Action:     ActionRejected,
			ActorID:    userID,
			Step:       actedStep,
			Comment:    opts.Reason,
		}
		if err := e.history.Create(tx, h); err != nil {
			return internal.NewInternalError("failed to record approval history", err)
		}

		result = &Result{Entity: st, History: h}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("entity rejected",
		"entity_kind", kind,
		"entity_id", entityID,
		"rejected_by", userID,
		"reason", opts.Reason)

	metrics.ObserveWorkflowTransition(string(kind), ActionRejected)
	e.publish(ctx, events.NewWorkflowEvent(
		events.EventTypeWorkflowRejected, string(kind), entityID, userID, submitter, result.History.Step, opts.Reason))

	return result, nil
}

// History lists the audit trail for an entity, newest first.
func (e *Engine) History(kind EntityKind, entityID int64, limit, offset int) ([]*ApprovalHistory, error) {
	if !ValidKind(kind) {
		return nil, ErrUnknownKind
	}
	return e.history.List(kind, entityID, limit, offset)
}

// frozenChain replays the approver chain recorded at submission time.
func (e *Engine) frozenChain(tx *gorm.DB, kind EntityKind, entityID int64) ([]int64, error) {
	h, err := e.history.LatestSubmission(tx, kind, entityID)
	if err != nil || h == nil {
		return nil, ErrChainMissing
	}

	var meta ChainMetadata
	if err := json.Unmarshal(h.Metadata, &meta); err != nil || len(meta.ApproverIDs) == 0 {
		return nil, ErrChainMissing
	}

	return meta.ApproverIDs, nil
}

func (e *Engine) publish(ctx context.Context, event events.Event) {
	if e.bus == nil {
		return
	}
	_ = e.bus.Publish(ctx, event)
}
