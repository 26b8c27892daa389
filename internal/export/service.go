package export

import (
	"io"
	"log/slog"
	"time"

	"github.com/civicworks/revenue-tracker/internal/budget"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// BuildReport assembles the budget performance report. Utilization and
// tiers are computed here so every format renders the same numbers.
func (s *Service) BuildReport(mdaID int64, fiscalYear int) (*BudgetPerformanceReport, error) {
	rows, err := s.repo.BudgetPerformanceRows(mdaID, fiscalYear)
	if err != nil {
		return nil, err
	}

	report := &BudgetPerformanceReport{
		MDAID:       mdaID,
		FiscalYear:  fiscalYear,
		GeneratedAt: time.Now(),
		Rows:        rows,
	}

	for i := range report.Rows {
		r := &report.Rows[i]
		r.Balance = r.Amount - r.Spent
		r.Utilization = budget.UtilizationPercentage(r.Amount, r.Spent)
		r.Tier = string(budget.ClassifyUtilization(r.Utilization))
		report.TotalAmount += r.Amount
		report.TotalSpent += r.Spent
	}

	return report, nil
}

// Render writes the report to w in the requested format.
func (s *Service) Render(w io.Writer, report *BudgetPerformanceReport, format string) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, report)
	case FormatXLSX:
		return writeXLSX(w, report)
	case FormatPDF:
		return writePDF(w, report)
	default:
		return ErrUnsupportedFormat
	}
}
