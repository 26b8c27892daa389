package postgres

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal/budget"
	"gorm.io/gorm"
)

// BudgetRepository implements the budget.Repository interface using GORM
type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) budget.Repository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) Create(b *budget.Budget, items []*budget.BudgetLineItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(b).Error; err != nil {
			return err
		}
		for _, li := range items {
			li.BudgetID = b.ID
			if err := tx.Create(li).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *BudgetRepository) GetByID(id int64) (*budget.Budget, error) {
	var b budget.Budget
	err := r.db.Where("id = ?", id).First(&b).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, budget.ErrBudgetNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *BudgetRepository) List(mdaID int64, fiscalYear int, limit, offset int) ([]*budget.Budget, error) {
	query := r.db.Model(&budget.Budget{})
	if mdaID > 0 {
		query = query.Where("mda_id = ?", mdaID)
	}
	if fiscalYear > 0 {
		query = query.Where("fiscal_year = ?", fiscalYear)
	}

	var budgets []*budget.Budget
	err := query.Order("fiscal_year DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&budgets).Error
	return budgets, err
}

func (r *BudgetRepository) Update(b *budget.Budget) error {
	b.UpdatedAt = time.Now()
	return r.db.Save(b).Error
}

func (r *BudgetRepository) AddLineItem(li *budget.BudgetLineItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(li).Error; err != nil {
			return err
		}
		return tx.Model(&budget.Budget{}).
			Where("id = ?", li.BudgetID).
			Updates(map[string]interface{}{
				"total_amount": gorm.Expr("total_amount + ?", li.Amount),
				"updated_at":   time.Now(),
			}).Error
	})
}

func (r *BudgetRepository) GetLineItem(id int64) (*budget.BudgetLineItem, error) {
	var li budget.BudgetLineItem
	err := r.db.Where("id = ?", id).First(&li).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, budget.ErrLineItemNotFound
		}
		return nil, err
	}
	return &li, nil
}

func (r *BudgetRepository) ListLineItems(budgetID int64) ([]*budget.BudgetLineItem, error) {
	var items []*budget.BudgetLineItem
	err := r.db.Where("budget_id = ?", budgetID).
		Order("code ASC").
		Find(&items).Error
	return items, err
}

func (r *BudgetRepository) UpdateLineItemBalance(id int64, balance int64) error {
	return r.db.Model(&budget.BudgetLineItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"balance":    balance,
			"updated_at": time.Now(),
		}).Error
}

func (r *BudgetRepository) SumApprovedExpenditures(lineItemID int64) (int64, error) {
	var sum int64
	err := r.db.Raw(
		"SELECT COALESCE(SUM(amount), 0) FROM expenditures WHERE line_item_id = ? AND status = ?",
		lineItemID, "approved",
	).Scan(&sum).Error
	return sum, err
}
