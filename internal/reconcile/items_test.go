package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvitto/internal/domain"
	"kvitto/internal/reconcile"
)

func anomalyTypes(anomalies []domain.Anomaly) []domain.AnomalyType {
	types := make([]domain.AnomalyType, len(anomalies))
	for i, a := range anomalies {
		types[i] = a.Type
	}
	return types
}

func TestReconcile_PriceMismatchCorrected(t *testing.T) {
	engine := reconcile.NewEngineWithClock(fixedClock())
	out := engine.Reconcile(domain.DraftReceipt{
		Items: []domain.DraftItem{
			{Name: "coffee", Quantity: 2, UnitPrice: 2.99, TotalPrice: 5.00},
		},
	})

	require.Len(t, out.Items, 1)
	assert.InDelta(t, 5.98, out.Items[0].TotalPrice, 0.001)
	assert.Contains(t, anomalyTypes(out.Validation.Anomalies), domain.AnomalyPriceMismatch)
}

func TestReconcile_PriceTooHighDividedBy100(t *testing.T) {
	engine := reconcile.NewEngineWithClock(fixedClock())
	out := engine.Reconcile(domain.DraftReceipt{
		Items: []domain.DraftItem{
			{Name: "wine", Quantity: 1, UnitPrice: 15000, TotalPrice: 150},
		},
	})

	assert.InDelta(t, 150.00, out.Items[0].UnitPrice, 0.001)
	assert.Contains(t, anomalyTypes(out.Validation.Anomalies), domain.AnomalyPriceTooHigh)
}

func TestReconcile_PriceTooLowRecomputed(t *testing.T) {
	engine := reconcile.NewEngineWithClock(fixedClock())
	out := engine.Reconcile(domain.DraftReceipt{
		Items: []domain.DraftItem{
			{Name: "bread", Quantity: 2, UnitPrice: 0, TotalPrice: 4.50},
		},
	})

	assert.InDelta(t, 2.25, out.Items[0].UnitPrice, 0.001)
	assert.Contains(t, anomalyTypes(out.Validation.Anomalies), domain.AnomalyPriceTooLow)
}

func TestReconcile_QuantityInvalidReset(t *testing.T) {
	engine := reconcile.NewEngineWithClock(fixedClock())
	out := engine.Reconcile(domain.DraftReceipt{
		Items: []domain.DraftItem{
			{Name: "apples", Quantity: 0, UnitPrice: 1.20, TotalPrice: 1.20},
			{Name: "pens", Quantity: 5000, UnitPrice: 0.50, TotalPrice: 0.50},
		},
	})

	assert.Equal(t, 1.0, out.Items[0].Quantity)
	assert.Equal(t, 1.0, out.Items[1].Quantity)

	types := anomalyTypes(out.Validation.Anomalies)
	count := 0
	for _, typ := range types {
		if typ == domain.AnomalyQuantityInvalid {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestReconcile_MissingTotalDerived(t *testing.T) {
	engine := reconcile.NewEngineWithClock(fixedClock())
	out := engine.Reconcile(domain.DraftReceipt{
		Items: []domain.DraftItem{
			{Name: "milk", Quantity: 3, UnitPrice: 1.10},
		},
	})

	assert.InDelta(t, 3.30, out.Items[0].TotalPrice, 0.001)
	// derivation of a missing total is not an anomaly
	assert.NotContains(t, anomalyTypes(out.Validation.Anomalies), domain.AnomalyPriceMismatch)
}

func TestReconcile_OutlierFlaggedNotCorrected(t *testing.T) {
	items := make([]domain.DraftItem, 0, 12)
	for i := 0; i < 11; i++ {
		items = append(items, domain.DraftItem{Name: "gum", Quantity: 1, UnitPrice: 1.00, TotalPrice: 1.00})
	}
	// 200.00 against a mean of ~17.58 is past the 10x threshold
	items = append(items, domain.DraftItem{Name: "tv", Quantity: 1, UnitPrice: 200.00, TotalPrice: 200.00})

	engine := reconcile.NewEngineWithClock(fixedClock())
	out := engine.Reconcile(domain.DraftReceipt{
		Items:  items,
		Totals: domain.Totals{Subtotal: 211, Total: 211},
	})

	assert.Contains(t, anomalyTypes(out.Validation.Anomalies), domain.AnomalyPriceOutlier)
	assert.InDelta(t, 200.00, out.Items[11].TotalPrice, 0.001)
}

func TestReconcile_WithinToleranceUntouched(t *testing.T) {
	engine := reconcile.NewEngineWithClock(fixedClock())
	out := engine.Reconcile(domain.DraftReceipt{
		Items: []domain.DraftItem{
			{Name: "cheese", Quantity: 3, UnitPrice: 2.00, TotalPrice: 5.99},
		},
	})

	// 5.99 vs 6.00 is inside the 2% band
	assert.InDelta(t, 5.99, out.Items[0].TotalPrice, 0.001)
	assert.NotContains(t, anomalyTypes(out.Validation.Anomalies), domain.AnomalyPriceMismatch)
}
