package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

var reportHeader = []string{
	"MDA", "Fiscal Year", "Budget", "Code", "Line Item", "Category",
	"Allocated", "Spent", "Balance", "Utilization %", "Tier",
}

func rowCells(r BudgetPerformanceRow) []string {
	return []string{
		r.MDAName,
		strconv.Itoa(r.FiscalYear),
		r.BudgetTitle,
		r.Code,
		r.Name,
		r.Category,
		strconv.FormatInt(r.Amount, 10),
		strconv.FormatInt(r.Spent, 10),
		strconv.FormatInt(r.Balance, 10),
		fmt.Sprintf("%.2f", r.Utilization),
		r.Tier,
	}
}

func writeCSV(w io.Writer, report *BudgetPerformanceReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, r := range report.Rows {
		if err := cw.Write(rowCells(r)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func writeXLSX(w io.Writer, report *BudgetPerformanceReport) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Budget Performance"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	for col, h := range reportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, r := range report.Rows {
		values := []interface{}{
			r.MDAName, r.FiscalYear, r.BudgetTitle, r.Code, r.Name, r.Category,
			r.Amount, r.Spent, r.Balance, r.Utilization, r.Tier,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	totalsRow := len(report.Rows) + 2
	totals := []interface{}{
		"TOTAL", "", "", "", "", "", report.TotalAmount, report.TotalSpent,
		report.TotalAmount - report.TotalSpent, "", "",
	}
	for col, v := range totals {
		cell, err := excelize.CoordinatesToCellName(col+1, totalsRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writePDF(w io.Writer, report *BudgetPerformanceReport) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Budget Performance Report - FY %d", report.FiscalYear), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, report.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{32, 16, 38, 18, 40, 22, 26, 26, 26, 20, 18}

	pdf.SetFont("Arial", "B", 8)
	for i, h := range reportHeader {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, r := range report.Rows {
		for i, cell := range rowCells(r) {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 8)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3]+widths[4]+widths[5], 6, "TOTAL", "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[6], 6, strconv.FormatInt(report.TotalAmount, 10), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[7], 6, strconv.FormatInt(report.TotalSpent, 10), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[8], 6, strconv.FormatInt(report.TotalAmount-report.TotalSpent, 10), "1", 0, "L", false, 0, "")
	pdf.CellFormat(widths[9]+widths[10], 6, "", "1", 1, "L", false, 0, "")

	return pdf.Output(w)
}
