package export

import (
	"time"

	"github.com/civicworks/revenue-tracker/internal"
)

// BudgetPerformanceRow is one line item in the performance report, with
// the spend recomputed from approved expenditures at report time.
type BudgetPerformanceRow struct {
	MDAName     string  `json:"mda_name"`
	FiscalYear  int     `json:"fiscal_year"`
	BudgetTitle string  `json:"budget_title"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Amount      int64   `json:"amount"`
	Spent       int64   `json:"spent"`
	Balance     int64   `json:"balance"`
	Utilization float64 `json:"utilization"`
	Tier        string  `json:"tier"`
}

// BudgetPerformanceReport is the assembled report plus totals.
type BudgetPerformanceReport struct {
	MDAID       int64                  `json:"mda_id"`
	FiscalYear  int                    `json:"fiscal_year"`
	GeneratedAt time.Time              `json:"generated_at"`
	Rows        []BudgetPerformanceRow `json:"rows"`
	TotalAmount int64                  `json:"total_amount"`
	TotalSpent  int64                  `json:"total_spent"`
}

// Output formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

func ValidFormat(format string) bool {
	switch format {
	case FormatCSV, FormatXLSX, FormatPDF:
		return true
	}
	return false
}

type Repository interface {
	// BudgetPerformanceRows returns one row per published or approved
	// budget line item for the MDA and fiscal year, with spend summed
	// from approved expenditures.
	BudgetPerformanceRows(mdaID int64, fiscalYear int) ([]BudgetPerformanceRow, error)
}

var ErrUnsupportedFormat = internal.NewValidationError("unsupported report format", internal.ErrCodeValidationFailed)
