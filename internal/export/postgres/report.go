package postgres

import (
	"github.com/civicworks/revenue-tracker/internal/export"
	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) BudgetPerformanceRows(mdaID int64, fiscalYear int) ([]export.BudgetPerformanceRow, error) {
	var rows []export.BudgetPerformanceRow
	err := r.db.Raw(`
		SELECT
			m.name AS mda_name,
			b.fiscal_year,
			b.title AS budget_title,
			li.code,
			li.name,
			li.category,
			li.amount,
			COALESCE(SUM(e.amount) FILTER (WHERE e.status = 'approved'), 0) AS spent
		FROM budget_line_items li
		JOIN budgets b ON b.id = li.budget_id
		JOIN mdas m ON m.id = b.mda_id
		LEFT JOIN expenditures e ON e.line_item_id = li.id
		WHERE b.mda_id = ? AND b.fiscal_year = ?
		  AND b.status IN ('approved', 'published')
		GROUP BY m.name, b.fiscal_year, b.title, li.id, li.code, li.name, li.category, li.amount
		ORDER BY li.code
	`, mdaID, fiscalYear).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
