package reconcile

import (
	"fmt"
	"math"

	"kvitto/internal/domain"
)

const (
	taxCeilingRatio      = 0.50
	taxRepairRate        = 0.19
	discountCeilingRatio = 0.90
	totalAdjustBand      = 0.10
)

// validateTotals reconciles the receipt-level money summary in place.
func validateTotals(r *domain.DraftReceipt) []domain.Anomaly {
	anomalies := []domain.Anomaly{}
	t := &r.Totals

	var itemsSum float64
	for i := range r.Items {
		item := &r.Items[i]
		if item.TotalPrice > 0 {
			itemsSum += item.TotalPrice
		} else {
			itemsSum += item.UnitPrice * item.Quantity
		}
	}
	itemsSum = round2(itemsSum)

	if t.Subtotal == 0 {
		if t.Total > 0 && t.Tax > 0 {
			t.Subtotal = round2(t.Total - t.Tax)
		} else {
			t.Subtotal = itemsSum
		}
	}

	// Line items on many receipts embed tax, so itemsSum may legitimately
	// approximate the total rather than the subtotal. Compare against the
	// nearer of the two before flagging.
	if itemsSum > 0 {
		anchor := t.Subtotal
		anchorField := "subtotal"
		if t.Total > 0 && math.Abs(itemsSum-t.Total) < math.Abs(itemsSum-t.Subtotal) {
			anchor = t.Total
			anchorField = "total"
		}
		if anchor > 0 && math.Abs(itemsSum-anchor) > priceTolerance*anchor {
			anomalies = append(anomalies, domain.Anomaly{
				Type:     domain.AnomalySubtotalMismatch,
				Field:    "totals.subtotal",
				Message:  fmt.Sprintf("sum of items %s disagrees with declared %s %s", fmtAmount(itemsSum), anchorField, fmtAmount(anchor)),
				Expected: fmtAmount(anchor),
				Actual:   fmtAmount(itemsSum),
			})
		}
	}

	if t.Subtotal > 0 && t.Tax > taxCeilingRatio*t.Subtotal {
		// conservative repair with a fixed regional default, not a derivation
		repaired := round2(t.Subtotal * taxRepairRate)
		anomalies = append(anomalies, domain.Anomaly{
			Type:     domain.AnomalyTaxTooHigh,
			Field:    "totals.tax",
			Message:  fmt.Sprintf("tax %s exceeds 50%% of subtotal %s, replaced with %s", fmtAmount(t.Tax), fmtAmount(t.Subtotal), fmtAmount(repaired)),
			Expected: fmtAmount(repaired),
			Actual:   fmtAmount(t.Tax),
		})
		t.Tax = repaired
	}

	if t.Subtotal > 0 && t.Discount > discountCeilingRatio*t.Subtotal {
		anomalies = append(anomalies, domain.Anomaly{
			Type:     domain.AnomalyDiscountTooHigh,
			Field:    "totals.discount",
			Message:  fmt.Sprintf("discount %s exceeds 90%% of subtotal %s, zeroed", fmtAmount(t.Discount), fmtAmount(t.Subtotal)),
			Expected: "0.00",
			Actual:   fmtAmount(t.Discount),
		})
		t.Discount = 0
	}

	computed := round2(t.Subtotal + t.Tax - t.Discount)
	declared := t.Total

	switch {
	case declared <= 0:
		t.Total = computed
	case computed <= 0:
		// nothing to reconcile against; trust the declared total
	default:
		gap := math.Abs(declared - computed)
		if gap > priceTolerance*computed {
			anomalies = append(anomalies, domain.Anomaly{
				Type:     domain.AnomalyTotalMismatch,
				Field:    "totals.total",
				Message:  fmt.Sprintf("declared total %s disagrees with subtotal + tax - discount = %s", fmtAmount(declared), fmtAmount(computed)),
				Expected: fmtAmount(computed),
				Actual:   fmtAmount(declared),
			})
			if gap < totalAdjustBand*computed {
				// small gap: balance the books around the declared total
				t.Tax = round2(t.Tax + declared - computed)
				t.Total = declared
			} else {
				t.Total = computed
				t.DeclaredTotal = declared
			}
		}
	}

	return anomalies
}
