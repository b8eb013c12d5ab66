package csvexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"kvitto/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row.
var columns = []string{
	"Merchant",
	"Purchase Date",
	"Currency",
	"Country",
	"Payment Method",
	"Subtotal",
	"Tax",
	"Discount",
	"Total",
	"Declared Total",
	"Item Count",
	"Anomalies",
	"Confidence",
	"Date Resolution",
}

// Writer wraps csv.Writer for exporting reconciled receipts as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteReceipts converts a batch of reconciled receipts to CSV rows and writes them.
func (w *Writer) WriteReceipts(receipts []domain.ReconciledReceipt) error {
	for i := range receipts {
		row := receiptToRow(&receipts[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

func receiptToRow(r *domain.ReconciledReceipt) []string {
	row := make([]string, len(columns))
	row[0] = r.MerchantName
	row[1] = r.PurchaseDate
	row[2] = r.Currency
	row[3] = r.Country
	row[4] = r.PaymentMethod
	row[5] = formatMoney(r.Totals.Subtotal)
	row[6] = formatMoney(r.Totals.Tax)
	row[7] = formatMoney(r.Totals.Discount)
	row[8] = formatMoney(r.Totals.Total)
	if r.Totals.DeclaredTotal > 0 {
		row[9] = formatMoney(r.Totals.DeclaredTotal)
	}
	row[10] = strconv.Itoa(len(r.Items))
	row[11] = formatAnomalies(r.Validation.Anomalies)
	row[12] = strconv.FormatFloat(r.Validation.Confidence, 'f', 2, 64)
	row[13] = string(r.Validation.DateResolution)
	return row
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatAnomalies joins anomaly types with ";" so a row stays one cell.
func formatAnomalies(anomalies []domain.Anomaly) string {
	if len(anomalies) == 0 {
		return ""
	}
	types := make([]string, len(anomalies))
	for i, a := range anomalies {
		types[i] = string(a.Type)
	}
	return strings.Join(types, ";")
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition header.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "receipts"
	}
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
