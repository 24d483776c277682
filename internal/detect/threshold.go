package detect

import "fmt"

// CheckThresholds returns a violation for every metric whose current value
// strictly exceeds its configured static threshold. Metrics without a
// configured threshold are ignored. Stateless; requires no history.
func CheckThresholds(current map[string]float64, thresholds map[string]float64) []ThresholdViolation {
	var violations []ThresholdViolation

	for metric, value := range current {
		threshold, ok := thresholds[metric]
		if !ok {
			continue
		}
		if value > threshold {
			violations = append(violations, ThresholdViolation{
				Metric:    metric,
				Value:     value,
				Threshold: threshold,
				Description: fmt.Sprintf("%s usage (%.2f) exceeds threshold (%.2f)",
					metric, value, threshold),
			})
		}
	}

	return violations
}
