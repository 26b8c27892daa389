package export

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/civicworks/revenue-tracker/internal/transport"
	"github.com/civicworks/revenue-tracker/pkg/logger"
)

type ServiceAPI interface {
	BuildReport(mdaID int64, fiscalYear int) (*BudgetPerformanceReport, error)
	Render(w io.Writer, report *BudgetPerformanceReport, format string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Service:     service,
	}
}

var contentTypes = map[string]string{
	FormatCSV:  "text/csv",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatPDF:  "application/pdf",
}

// BudgetPerformance handles GET /reports/budget-performance.
func (h *Handler) BudgetPerformance(w http.ResponseWriter, r *http.Request) {
	mdaID, err := strconv.ParseInt(r.URL.Query().Get("mda_id"), 10, 64)
	if err != nil || mdaID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "mda_id is required")
		return
	}

	fiscalYear, err := strconv.Atoi(r.URL.Query().Get("fiscal_year"))
	if err != nil || fiscalYear <= 0 {
		h.WriteError(w, http.StatusBadRequest, "fiscal_year is required")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatCSV
	}
	if !ValidFormat(format) {
		h.WriteError(w, http.StatusBadRequest, "format must be csv, xlsx or pdf")
		return
	}

	report, err := h.Service.BuildReport(mdaID, fiscalYear)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	// Render into a buffer so a formatter failure still gets a clean
	// error response instead of a truncated download.
	var buf bytes.Buffer
	if err := h.Service.Render(&buf, report, format); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("budget-performance-%d-fy%d.%s", mdaID, fiscalYear, format)
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
