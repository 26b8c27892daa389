package workflow

import (
	"errors"
	"time"

	"github.com/civicworks/revenue-tracker/internal/budget"
	"github.com/civicworks/revenue-tracker/internal/expenditure"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BudgetStore adapts budget rows to the workflow engine.
type BudgetStore struct{}

func NewBudgetStore() *BudgetStore {
	return &BudgetStore{}
}

func (s *BudgetStore) Kind() EntityKind {
	return KindBudget
}

func (s *BudgetStore) Load(tx *gorm.DB, id int64) (*EntityState, error) {
	var b budget.Budget
	if err := tx.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, budget.ErrBudgetNotFound
		}
		return nil, err
	}

	return &EntityState{
		ID:                b.ID,
		MDAID:             b.MDAID,
		Amount:            b.TotalAmount,
		Status:            b.Status,
		CurrentApproverID: b.CurrentApproverID,
		CurrentStep:       b.CurrentStep,
		SubmittedBy:       b.SubmittedBy,
	}, nil
}

func (s *BudgetStore) ValidateSubmit(tx *gorm.DB, st *EntityState) error {
	var count int64
	if err := tx.Model(&budget.BudgetLineItem{}).Where("budget_id = ?", st.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return budget.ErrNoLineItems
	}
	return nil
}

func (s *BudgetStore) MarkPending(tx *gorm.DB, st *EntityState, approverID, userID int64) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":              StatusPendingApproval,
		"current_approver_id": approverID,
		"current_step":        0,
		"submitted_at":        now,
		"submitted_by":        userID,
		"rejected_at":         nil,
		"rejected_by":         nil,
		"rejection_reason":    "",
		"updated_at":          now,
	}
	if err := tx.Model(&budget.Budget{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
		return err
	}

	st.Status = StatusPendingApproval
	st.CurrentApproverID = &approverID
	st.CurrentStep = 0
	st.SubmittedBy = &userID
	return nil
}

func (s *BudgetStore) Advance(tx *gorm.DB, st *EntityState, approverID int64, step int) error {
	updates := map[string]interface{}{
		"current_approver_id": approverID,
		"current_step":        step,
		"updated_at":          time.Now(),
	}
	if err := tx.Model(&budget.Budget{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
		return err
	}

	st.CurrentApproverID = &approverID
	st.CurrentStep = step
	return nil
}

func (s *BudgetStore) FinalizeApprove(tx *gorm.DB, st *EntityState, userID int64) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":              StatusApproved,
		"current_approver_id": nil,
		"approved_at":         now,
		"approved_by":         userID,
		"updated_at":          now,
	}
	if err := tx.Model(&budget.Budget{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
		return err
	}

	st.Status = StatusApproved
	st.CurrentApproverID = nil
	return nil
}

func (s *BudgetStore) MarkRejected(tx *gorm.DB, st *EntityState, userID int64, reason string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":              StatusRejected,
		"current_approver_id": nil,
		"rejected_at":         now,
		"rejected_by":         userID,
		"rejection_reason":    reason,
		"updated_at":          now,
	}
	if err := tx.Model(&budget.Budget{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
		return err
	}

	st.Status = StatusRejected
	st.CurrentApproverID = nil
	return nil
}

// ExpenditureStore adapts expenditure rows to the workflow engine. Balance
// is checked against live approved sums at submit and re-checked under a
// row lock at final approval so concurrent approvals cannot overdraw a
// line item.
type ExpenditureStore struct{}

func NewExpenditureStore() *ExpenditureStore {
	return &ExpenditureStore{}
}

func (s *ExpenditureStore) Kind() EntityKind {
	return KindExpenditure
}

func (s *ExpenditureStore) Load(tx *gorm.DB, id int64) (*EntityState, error) {
	var e expenditure.Expenditure
	if err := tx.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, expenditure.ErrExpenditureNotFound
		}
		return nil, err
	}

	return &EntityState{
		ID:                e.ID,
		MDAID:             e.MDAID,
		Amount:            e.Amount,
		Status:            e.Status,
		CurrentApproverID: e.CurrentApproverID,
		CurrentStep:       e.CurrentStep,
		SubmittedBy:       e.SubmittedBy,
	}, nil
}

func (s *ExpenditureStore) ValidateSubmit(tx *gorm.DB, st *EntityState) error {
	var e expenditure.Expenditure
	if err := tx.First(&e, st.ID).Error; err != nil {
		return err
	}

	balance, err := s.liveBalance(tx, e.LineItemID, false)
	if err != nil {
		return err
	}
	if e.Amount > balance {
		return expenditure.ErrInsufficientBalance
	}
	return nil
}

func (s *ExpenditureStore) MarkPending(tx *gorm.DB, st *EntityState, approverID, userID int64) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":              StatusPendingApproval,
		"current_approver_id": approverID,
		"current_step":        0,
		"submitted_at":        now,
		"submitted_by":        userID,
		"rejected_at":         nil,
		"rejected_by":         nil,
		"rejection_reason":    "",
		"updated_at":          now,
	}
	if err := tx.Model(&expenditure.Expenditure{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
		return err
	}

	st.Status = StatusPendingApproval
	st.CurrentApproverID = &approverID
	st.CurrentStep = 0
	st.SubmittedBy = &userID
	return nil
}

func (s *ExpenditureStore) Advance(tx *gorm.DB, st *EntityState, approverID int64, step int) error {
	updates := map[string]interface{}{
		"current_approver_id": approverID,
		"current_step":        step,
		"updated_at":          time.Now(),
	}
	if err := tx.Model(&expenditure.Expenditure{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
		return err
	}

	st.CurrentApproverID = &approverID
	st.CurrentStep = step
	return nil
}

// FinalizeApprove locks the line item row, re-checks the balance against
// the live approved sum, then marks the expenditure approved and refreshes
// the cached balance. Two concurrent final approvals serialize on the lock
// and the second one fails the balance check.
func (s *ExpenditureStore) FinalizeApprove(tx *gorm.DB, st *EntityState, userID int64) error {
	var e expenditure.Expenditure
	if err := tx.First(&e, st.ID).Error; err != nil {
		return err
	}

	var item budget.BudgetLineItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, e.LineItemID).Error; err != nil {
		return err
	}

	balance, err := s.liveBalance(tx, e.LineItemID, true)
	if err != nil {
		return err
	}
	if e.Amount > balance {
		return expenditure.ErrInsufficientBalance
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":              StatusApproved,
		"current_approver_id": nil,
		"approved_at":         now,
		"approved_by":         userID,
		"updated_at":          now,
	}
	if err := tx.Model(&expenditure.Expenditure{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
		return err
	}

	newBalance := balance - e.Amount
	if err := tx.Model(&budget.BudgetLineItem{}).Where("id = ?", item.ID).
		Updates(map[string]interface{}{"balance": newBalance, "updated_at": now}).Error; err != nil {
		return err
	}

	st.Status = StatusApproved
	st.CurrentApproverID = nil
	return nil
}

func (s *ExpenditureStore) MarkRejected(tx *gorm.DB, st *EntityState, userID int64, reason string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":              StatusRejected,
		"current_approver_id": nil,
		"rejected_at":         now,
		"rejected_by":         userID,
		"rejection_reason":    reason,
		"updated_at":          now,
	}
	if err := tx.Model(&expenditure.Expenditure{}).Where("id = ?", st.ID).Updates(updates).Error; err != nil {
		return err
	}

	st.Status = StatusRejected
	st.CurrentApproverID = nil
	return nil
}

// liveBalance computes the line item's remaining balance from the amount
// and the live sum of approved expenditures, never the cached column.
// With lock set the item row is read FOR UPDATE.
func (s *ExpenditureStore) liveBalance(tx *gorm.DB, lineItemID int64, lock bool) (int64, error) {
	q := tx
	if lock {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var item budget.BudgetLineItem
	if err := q.First(&item, lineItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, budget.ErrLineItemNotFound
		}
		return 0, err
	}

	var spent int64
	err := tx.Model(&expenditure.Expenditure{}).
		Where("line_item_id = ? AND status = ?", lineItemID, StatusApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&spent).Error
	if err != nil {
		return 0, err
	}

	return item.Amount - spent, nil
}
