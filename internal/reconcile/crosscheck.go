package reconcile

import (
	"fmt"

	"kvitto/internal/domain"
)

const (
	lowAverageMinItems  = 5
	lowAverageThreshold = 0.5
)

// crossCheck validates structural relationships between the total and the
// item list. These are flag-only checks; nothing is corrected.
func crossCheck(r *domain.DraftReceipt) []domain.Anomaly {
	anomalies := []domain.Anomaly{}
	total := r.Totals.Total

	if total > 0 {
		for i := range r.Items {
			if r.Items[i].TotalPrice > total+0.005 {
				anomalies = append(anomalies, domain.Anomaly{
					Type:     domain.AnomalyTotalLessThanItem,
					Field:    fmt.Sprintf("items[%d].total_price", i),
					Message:  fmt.Sprintf("receipt total %s is smaller than item total %s", fmtAmount(total), fmtAmount(r.Items[i].TotalPrice)),
					Expected: fmtAmount(r.Items[i].TotalPrice),
					Actual:   fmtAmount(total),
				})
			}
		}
	}

	if len(r.Items) > lowAverageMinItems && total > 0 {
		avg := total / float64(len(r.Items))
		if avg < lowAverageThreshold {
			anomalies = append(anomalies, domain.Anomaly{
				Type:     domain.AnomalySuspiciouslyLowAverage,
				Field:    "totals.total",
				Message:  fmt.Sprintf("average item price %s over %d items suggests a unit or currency error", fmtAmount(avg), len(r.Items)),
				Actual:   fmtAmount(avg),
				Expected: fmtAmount(lowAverageThreshold),
			})
		}
	}

	return anomalies
}
