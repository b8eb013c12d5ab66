package reconcile

import (
	"fmt"
	"math"

	"kvitto/internal/domain"
)

const (
	unitPriceFloor   = 0.01
	unitPriceCeiling = 10000
	maxQuantity      = 1000
	priceTolerance   = 0.02
	outlierFactor    = 10
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func fmtAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// validateItems checks and repairs each line item in place.
func validateItems(r *domain.DraftReceipt) []domain.Anomaly {
	anomalies := []domain.Anomaly{}

	for i := range r.Items {
		item := &r.Items[i]
		field := fmt.Sprintf("items[%d]", i)

		if item.Quantity <= 0 || item.Quantity > maxQuantity {
			anomalies = append(anomalies, domain.Anomaly{
				Type:     domain.AnomalyQuantityInvalid,
				Field:    field + ".quantity",
				Message:  fmt.Sprintf("quantity %g outside (0, %d], reset to 1", item.Quantity, maxQuantity),
				Expected: "1",
				Actual:   fmt.Sprintf("%g", item.Quantity),
			})
			item.Quantity = 1
		}

		if item.UnitPrice < unitPriceFloor {
			anomaly := domain.Anomaly{
				Type:    domain.AnomalyPriceTooLow,
				Field:   field + ".unit_price",
				Message: fmt.Sprintf("unit price %s below floor %s", fmtAmount(item.UnitPrice), fmtAmount(unitPriceFloor)),
				Actual:  fmtAmount(item.UnitPrice),
			}
			if item.TotalPrice > 0 && item.Quantity > 0 {
				corrected := round2(item.TotalPrice / item.Quantity)
				anomaly.Expected = fmtAmount(corrected)
				item.UnitPrice = corrected
			}
			anomalies = append(anomalies, anomaly)
		}

		if item.UnitPrice > unitPriceCeiling {
			// misplaced decimal point, a common OCR artifact
			corrected := round2(item.UnitPrice / 100)
			anomalies = append(anomalies, domain.Anomaly{
				Type:     domain.AnomalyPriceTooHigh,
				Field:    field + ".unit_price",
				Message:  fmt.Sprintf("unit price %s above ceiling %d, corrected to %s", fmtAmount(item.UnitPrice), unitPriceCeiling, fmtAmount(corrected)),
				Expected: fmtAmount(corrected),
				Actual:   fmtAmount(item.UnitPrice),
			})
			item.UnitPrice = corrected
		}

		if item.TotalPrice == 0 && item.UnitPrice > 0 {
			item.TotalPrice = round2(item.UnitPrice * item.Quantity)
		}

		expected := round2(item.UnitPrice * item.Quantity)
		if expected > 0 {
			tolerance := priceTolerance * math.Max(expected, item.TotalPrice)
			if math.Abs(expected-item.TotalPrice) > tolerance {
				anomalies = append(anomalies, domain.Anomaly{
					Type:     domain.AnomalyPriceMismatch,
					Field:    field + ".total_price",
					Message:  fmt.Sprintf("quantity x unit price = %s disagrees with total %s", fmtAmount(expected), fmtAmount(item.TotalPrice)),
					Expected: fmtAmount(expected),
					Actual:   fmtAmount(item.TotalPrice),
				})
				item.TotalPrice = expected
			}
		}
	}

	anomalies = append(anomalies, flagOutliers(r)...)
	return anomalies
}

// flagOutliers marks items whose total exceeds 10x the mean item price.
// Outliers are flagged only, never auto-corrected.
func flagOutliers(r *domain.DraftReceipt) []domain.Anomaly {
	if len(r.Items) < 2 {
		return nil
	}
	var sum float64
	for i := range r.Items {
		sum += r.Items[i].TotalPrice
	}
	mean := sum / float64(len(r.Items))
	if mean <= 0 {
		return nil
	}

	var anomalies []domain.Anomaly
	for i := range r.Items {
		if r.Items[i].TotalPrice > outlierFactor*mean {
			anomalies = append(anomalies, domain.Anomaly{
				Type:     domain.AnomalyPriceOutlier,
				Field:    fmt.Sprintf("items[%d].total_price", i),
				Message:  fmt.Sprintf("item total %s is more than %dx the mean item price %s", fmtAmount(r.Items[i].TotalPrice), outlierFactor, fmtAmount(mean)),
				Expected: fmtAmount(mean),
				Actual:   fmtAmount(r.Items[i].TotalPrice),
			})
		}
	}
	return anomalies
}
