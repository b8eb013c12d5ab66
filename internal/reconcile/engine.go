package reconcile

import (
	"time"

	"kvitto/internal/domain"
)

// Engine turns untrusted draft receipts into arithmetically consistent
// records. Reconcile is a pure single-pass transform; the injected clock
// exists only for the date plausibility window.
type Engine struct {
	now func() time.Time
}

// NewEngine creates an Engine using the wall clock.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock creates an Engine with a fixed clock (for testing).
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Reconcile corrects a draft receipt and attaches the validation verdict.
// The input is not mutated. Reconciling an already-consistent record again
// produces no new anomalies.
func (e *Engine) Reconcile(draft domain.DraftReceipt) domain.ReconciledReceipt {
	out := draft
	out.Items = append([]domain.DraftItem(nil), draft.Items...)
	out.VATInfo = append([]domain.VATEntry(nil), draft.VATInfo...)
	if draft.DiscountInfo != nil {
		di := *draft.DiscountInfo
		out.DiscountInfo = &di
	}

	anomalies := []domain.Anomaly{}
	resolution := resolveDate(&out, e.now())
	anomalies = append(anomalies, validateItems(&out)...)
	anomalies = append(anomalies, validateTotals(&out)...)
	anomalies = append(anomalies, crossCheck(&out)...)

	return domain.ReconciledReceipt{
		DraftReceipt: out,
		Validation: domain.Validation{
			AnomaliesDetected: len(anomalies) > 0,
			Anomalies:         anomalies,
			Confidence:        scoreConfidence(anomalies),
			DateResolution:    resolution,
		},
	}
}
