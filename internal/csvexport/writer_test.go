package csvexport_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvitto/internal/csvexport"
	"kvitto/internal/domain"
)

func sampleReceipt() domain.ReconciledReceipt {
	return domain.ReconciledReceipt{
		DraftReceipt: domain.DraftReceipt{
			MerchantName:  "Albert Heijn",
			PurchaseDate:  "2025-03-14",
			Currency:      "EUR",
			Country:       "NL",
			PaymentMethod: "card",
			Items: []domain.DraftItem{
				{Name: "melk", Quantity: 1, UnitPrice: 1.19, TotalPrice: 1.19},
				{Name: "brood", Quantity: 2, UnitPrice: 2.50, TotalPrice: 5.00},
			},
			Totals: domain.Totals{Subtotal: 6.19, Tax: 0.56, Total: 6.75},
		},
		Validation: domain.Validation{
			AnomaliesDetected: true,
			Anomalies: []domain.Anomaly{
				{Type: domain.AnomalyPriceMismatch, Field: "items[0].total_price"},
				{Type: domain.AnomalyTotalMismatch, Field: "totals.total"},
			},
			Confidence:     0.6,
			DateResolution: domain.DateResolvedByCountryEU,
		},
	}
}

func TestWriter_HeaderAndRow(t *testing.T) {
	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.WriteReceipts([]domain.ReconciledReceipt{sampleReceipt()}))
	w.Flush()
	require.NoError(t, w.Error())

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header := records[0]
	assert.Equal(t, "Merchant", header[0])
	assert.Equal(t, "Date Resolution", header[13])

	row := records[1]
	assert.Equal(t, "Albert Heijn", row[0])
	assert.Equal(t, "2025-03-14", row[1])
	assert.Equal(t, "EUR", row[2])
	assert.Equal(t, "6.75", row[8])
	assert.Equal(t, "", row[9]) // no declared total kept
	assert.Equal(t, "2", row[10])
	assert.Equal(t, "price_mismatch;total_mismatch", row[11])
	assert.Equal(t, "0.60", row[12])
	assert.Equal(t, string(domain.DateResolvedByCountryEU), row[13])
}

func TestWriter_DeclaredTotalColumn(t *testing.T) {
	r := sampleReceipt()
	r.Totals.DeclaredTotal = 7.10

	var buf bytes.Buffer
	w := csvexport.NewWriter(&buf)
	require.NoError(t, w.WriteReceipts([]domain.ReconciledReceipt{r}))
	w.Flush()

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "7.10", records[0][9])
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "march_receipts", csvexport.SanitizeFilename("march receipts"))
	assert.Equal(t, "a_b_c", csvexport.SanitizeFilename("a//b..c"))
	assert.Equal(t, "report", csvexport.SanitizeFilename("__report__"))
	assert.Equal(t, "", csvexport.SanitizeFilename("!!!"))

	long := strings.Repeat("x", 150)
	assert.Len(t, csvexport.SanitizeFilename(long), 100)
}

func TestBuildFilename(t *testing.T) {
	name := csvexport.BuildFilename("March Export", "csv")
	assert.True(t, strings.HasPrefix(name, "March_Export_"))
	assert.True(t, strings.HasSuffix(name, ".csv"))

	fallback := csvexport.BuildFilename("", "xlsx")
	assert.True(t, strings.HasPrefix(fallback, "receipts_"))
	assert.True(t, strings.HasSuffix(fallback, ".xlsx"))
}
