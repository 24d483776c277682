// Package detect provides statistical anomaly detection, trend classification,
// and summary statistics over rolling metric windows.
package detect

import "fmt"

// Anomaly represents a single metric whose current value lies outside the
// z-score band defined by the detector's sensitivity.
type Anomaly struct {
	// Metric is the name of the metric that triggered.
	Metric string `json:"metric"`

	// Value is the observed value for this cycle.
	Value float64 `json:"value"`

	// Threshold is mean + sensitivity*std over the stored window. It is the
	// upper edge of the z-score band even when the observed value is a low
	// outlier; callers should treat it as the band boundary, not a directional
	// bound.
	Threshold float64 `json:"threshold"`
}

// Label returns a short human-readable identifier for the anomaly, used for
// remediation routing and logging.
func (a Anomaly) Label() string {
	return fmt.Sprintf("%s anomaly", a.Metric)
}

// TrendLabel classifies the direction of a metric's recent history.
type TrendLabel string

const (
	// TrendIncreasing means the fitted slope exceeds the trend threshold.
	TrendIncreasing TrendLabel = "increasing"
	// TrendDecreasing means the fitted slope is below the negated threshold.
	TrendDecreasing TrendLabel = "decreasing"
	// TrendStable means the fitted slope is within the threshold band.
	TrendStable TrendLabel = "stable"
	// TrendInsufficientData means the metric is unknown or has fewer than
	// two samples.
	TrendInsufficientData TrendLabel = "insufficient data"
)

// SummaryStats holds descriptive statistics for a metric window.
// Valid is false when the metric is unknown or has fewer than two samples;
// all other fields are zero in that case.
type SummaryStats struct {
	Valid  bool    `json:"valid"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P95    float64 `json:"percentile_95"`
}

// ThresholdViolation represents a metric whose current value strictly exceeds
// its configured static threshold.
type ThresholdViolation struct {
	Metric      string  `json:"metric"`
	Value       float64 `json:"value"`
	Threshold   float64 `json:"threshold"`
	Description string  `json:"description"`
}

// Label returns the remediation routing label for the violation.
func (v ThresholdViolation) Label() string {
	return fmt.Sprintf("%s anomaly", v.Metric)
}
