package reconcile

import (
	"kvitto/internal/domain"
)

const defaultPenalty = 0.05

// penalties per anomaly type. Applied at most once per distinct type so
// repeated per-item issues of the same kind do not compound unfairly.
var penalties = map[domain.AnomalyType]float64{
	domain.AnomalyTotalMismatch:          0.30,
	domain.AnomalySubtotalMismatch:       0.20,
	domain.AnomalyPriceOutlier:           0.15,
	domain.AnomalyTaxTooHigh:             0.10,
	domain.AnomalyPriceMismatch:          0.10,
	domain.AnomalySuspiciouslyLowAverage: 0.25,
	domain.AnomalyTotalLessThanItem:      0.40,
}

// scoreConfidence derives a confidence in [0,1] from the anomaly list.
func scoreConfidence(anomalies []domain.Anomaly) float64 {
	confidence := 1.0
	seen := map[domain.AnomalyType]bool{}
	for _, a := range anomalies {
		if seen[a.Type] {
			continue
		}
		seen[a.Type] = true
		penalty, ok := penalties[a.Type]
		if !ok {
			penalty = defaultPenalty
		}
		confidence -= penalty
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
