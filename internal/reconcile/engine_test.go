package reconcile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvitto/internal/domain"
	"kvitto/internal/reconcile"
)

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	draft := domain.DraftReceipt{
		Items: []domain.DraftItem{
			{Name: "coffee", Quantity: 2, UnitPrice: 2.99, TotalPrice: 5.00},
		},
		Totals: domain.Totals{Subtotal: 100.00, Tax: 60.00},
	}

	engine := reconcile.NewEngineWithClock(fixedClock())
	engine.Reconcile(draft)

	assert.Equal(t, 5.00, draft.Items[0].TotalPrice)
	assert.Equal(t, 60.00, draft.Totals.Tax)
}

func TestReconcile_SecondPassIsClean(t *testing.T) {
	engine := reconcile.NewEngineWithClock(fixedClock())

	first := engine.Reconcile(domain.DraftReceipt{
		Items: []domain.DraftItem{
			{Name: "coffee", Quantity: 2, UnitPrice: 2.99, TotalPrice: 5.00},
		},
		Totals: domain.Totals{Subtotal: 6.00, Tax: 0.50, Total: 6.00},
	})
	require.True(t, first.Validation.AnomaliesDetected)

	second := engine.Reconcile(first.DraftReceipt)
	assert.False(t, second.Validation.AnomaliesDetected)
	assert.Equal(t, 1.0, second.Validation.Confidence)
	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, first.Items, second.Items)
}

func TestReconcile_ConfidenceClampedAtZero(t *testing.T) {
	// Stacks total_less_than_item, subtotal_mismatch, suspiciously_low_average
	// and more; the combined penalties exceed 1.0.
	items := make([]domain.DraftItem, 6)
	for i := range items {
		items[i] = domain.DraftItem{Name: "sweet", Quantity: 1, UnitPrice: 0.05, TotalPrice: 0.05}
	}
	items = append(items, domain.DraftItem{Name: "ham", Quantity: 1, UnitPrice: 5.00, TotalPrice: 5.00})

	engine := reconcile.NewEngineWithClock(fixedClock())
	out := engine.Reconcile(domain.DraftReceipt{
		Items:  items,
		Totals: domain.Totals{Subtotal: 2.00, Total: 2.50},
	})

	assert.Equal(t, 0.0, out.Validation.Confidence)
	assert.True(t, out.Validation.AnomaliesDetected)
}

func TestReconcile_EmptyDraft(t *testing.T) {
	engine := reconcile.NewEngineWithClock(fixedClock())
	out := engine.Reconcile(domain.DraftReceipt{})

	assert.False(t, out.Validation.AnomaliesDetected)
	assert.NotNil(t, out.Validation.Anomalies)
	assert.Equal(t, 1.0, out.Validation.Confidence)
}
