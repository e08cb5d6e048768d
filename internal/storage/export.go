package storage

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// ExportQuoteToExcel writes a quote and its lines to an .xlsx file for staff
// and returns the file path.
func ExportQuoteToExcel(session *QuoteSession, lines []QuoteLine) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Quote"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}

	f.SetCellValue(sheet, "A1", "Quote ID")
	f.SetCellValue(sheet, "B1", session.QuoteID)
	f.SetCellValue(sheet, "A2", "Customer")
	f.SetCellValue(sheet, "B2", session.CustomerName)
	f.SetCellValue(sheet, "A3", "Email")
	f.SetCellValue(sheet, "B3", session.CustomerEmail)
	f.SetCellValue(sheet, "A4", "Created At")
	f.SetCellValue(sheet, "B4", session.CreatedAt.Format("2006-01-02 15:04"))
	f.SetCellValue(sheet, "A5", "Expires At")
	f.SetCellValue(sheet, "B5", session.ExpiresAt.Format("2006-01-02"))

	headers := []string{
		"Line", "Style", "Product", "Method", "Tier", "Qty",
		"Unit Price", "Line Total", "LTM",
	}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 7)
		f.SetCellValue(sheet, cell, header)
	}

	for row, line := range lines {
		ltm := ""
		if line.HasLTM {
			ltm = "Yes"
		}
		data := []interface{}{
			line.LineNumber,
			line.StyleNumber,
			line.ProductName,
			line.Method,
			line.PricingTier,
			line.Quantity,
			line.FinalUnitPrice,
			line.LineTotal,
			ltm,
		}
		for col, value := range data {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+8)
			f.SetCellValue(sheet, cell, value)
		}
	}

	totalsRow := len(lines) + 9
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow), "Subtotal")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", totalsRow), session.SubtotalAmount)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow+1), "LTM Fees")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", totalsRow+1), session.LTMFeeTotal)
	f.SetCellValue(sheet, fmt.Sprintf("A%d", totalsRow+2), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", totalsRow+2), session.TotalAmount)

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellStyle(sheet, "A1", "A5", style)
	f.SetActiveSheet(index)

	if err := os.MkdirAll("reports", 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	filepath := fmt.Sprintf("reports/quote_%s.xlsx", session.QuoteID)
	if err := f.SaveAs(filepath); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}

	return filepath, nil
}
