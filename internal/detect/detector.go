package detect

import (
	"math"
	"sort"

	"github.com/bc-dunia/hostguard/internal/window"
)

// trendSlopeThreshold is the absolute slope (value units per sample) beyond
// which a metric is classified as increasing or decreasing. It is not scaled
// by the metric's magnitude.
const trendSlopeThreshold = 0.1

// Detector flags metrics whose current value deviates from their rolling
// history by more than sensitivity standard deviations.
//
// All methods are total: metrics with insufficient history or degenerate
// (zero-variance) windows are skipped or yield sentinel results, never errors.
// Cold-start noise must not halt the agent.
type Detector struct {
	windowSize  int
	sensitivity float64
	store       *window.Store
}

// NewDetector creates a Detector over store. windowSize is the number of
// samples a metric must have accumulated before it is eligible for detection;
// sensitivity is the z-score boundary in standard deviations.
func NewDetector(store *window.Store, windowSize int, sensitivity float64) *Detector {
	if windowSize <= 0 {
		windowSize = 60
	}
	if sensitivity <= 0 {
		sensitivity = 1.5
	}
	return &Detector{
		windowSize:  windowSize,
		sensitivity: sensitivity,
		store:       store,
	}
}

// Store returns the rolling window store the detector reads from.
func (d *Detector) Store() *window.Store {
	return d.store
}

// Detect compares each current value against its stored window and returns an
// Anomaly for every metric whose z-score exceeds the sensitivity.
//
// Detection reads the window as it currently stands; it does not incorporate
// the current sample. Callers decide whether to call Store().Update before or
// after detection.
//
// A metric is skipped when its window holds fewer than windowSize samples
// (a just-filled window of exactly windowSize is eligible) or when the window
// has zero variance, where a z-score would be undefined.
func (d *Detector) Detect(current map[string]float64) []Anomaly {
	var anomalies []Anomaly

	for metric, value := range current {
		values := d.store.Snapshot(metric)
		if len(values) < d.windowSize {
			continue
		}

		mean, std := meanStd(values)
		if std == 0 {
			continue
		}

		zScore := math.Abs(value-mean) / std
		if zScore > d.sensitivity {
			anomalies = append(anomalies, Anomaly{
				Metric:    metric,
				Value:     value,
				Threshold: mean + d.sensitivity*std,
			})
		}
	}

	return anomalies
}

// Trend classifies the direction of a metric's stored history by fitting an
// ordinary least-squares line and comparing the slope against a fixed band.
func (d *Detector) Trend(metric string) TrendLabel {
	values := d.store.Snapshot(metric)
	if len(values) < 2 {
		return TrendInsufficientData
	}

	slope := olsSlope(values)
	switch {
	case slope > trendSlopeThreshold:
		return TrendIncreasing
	case slope < -trendSlopeThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// Stats computes descriptive statistics for a metric's stored history.
// Metrics that are unknown or hold fewer than two samples return a zero-value
// SummaryStats with Valid unset.
func (d *Detector) Stats(metric string) SummaryStats {
	values := d.store.Snapshot(metric)
	if len(values) < 2 {
		return SummaryStats{}
	}

	mean, std := meanStd(values)

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	return SummaryStats{
		Valid:  true,
		Mean:   mean,
		StdDev: std,
		Min:    min,
		Max:    max,
		P95:    percentile(values, 95),
	}
}

// meanStd returns the mean and population standard deviation (divisor N).
func meanStd(values []float64) (float64, float64) {
	n := float64(len(values))

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= n

	return mean, math.Sqrt(variance)
}

// olsSlope fits y = a + b*x over x = 0..n-1 and returns b.
func olsSlope(values []float64) float64 {
	n := float64(len(values))

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// percentile computes the p-th percentile using linear interpolation between
// order statistics: rank = p/100*(n-1), interpolated between the floor and
// ceil ranks.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if upper >= len(sorted) {
		upper = len(sorted) - 1
	}
	if lower == upper {
		return sorted[lower]
	}

	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
