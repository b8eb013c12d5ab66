package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"kvitto/internal/domain"
)

const sheet = "Receipts"

var headers = []string{
	"Merchant",
	"Purchase Date",
	"Currency",
	"Subtotal",
	"Tax",
	"Discount",
	"Total",
	"Item Count",
	"Anomalies",
	"Confidence",
}

// ReceiptsXLSX returns an XLSX workbook (as bytes) with one row per
// reconciled receipt.
func ReceiptsXLSX(receipts []domain.ReconciledReceipt) ([]byte, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 && sheet != "Sheet1" {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for i := range receipts {
		r := &receipts[i]
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.MerchantName)
		write(2, r.PurchaseDate)
		write(3, r.Currency)
		write(4, r.Totals.Subtotal)
		write(5, r.Totals.Tax)
		write(6, r.Totals.Discount)
		write(7, r.Totals.Total)
		write(8, len(r.Items))
		write(9, anomalySummary(r.Validation.Anomalies))
		write(10, r.Validation.Confidence)

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 28) // merchant
	_ = f.SetColWidth(sheet, "B", "B", 14) // date
	_ = f.SetColWidth(sheet, "D", "G", 12) // amounts
	_ = f.SetColWidth(sheet, "I", "I", 40) // anomalies

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func anomalySummary(anomalies []domain.Anomaly) string {
	if len(anomalies) == 0 {
		return ""
	}
	types := make([]string, len(anomalies))
	for i, a := range anomalies {
		types[i] = string(a.Type)
	}
	return strings.Join(types, ";")
}
