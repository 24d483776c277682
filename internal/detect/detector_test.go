package detect

import (
	"math"
	"testing"

	"github.com/bc-dunia/hostguard/internal/window"
)

func newDetector(t *testing.T, windowSize int, sensitivity float64) *Detector {
	t.Helper()
	return NewDetector(window.NewStore(windowSize), windowSize, sensitivity)
}

func feed(d *Detector, metric string, values ...float64) {
	for _, v := range values {
		d.Store().Update(map[string]float64{metric: v})
	}
}

func TestDetectSkipsShortWindows(t *testing.T) {
	d := newDetector(t, 10, 2.0)

	// 9 samples is one short of eligibility; no value may trigger.
	feed(d, "cpu", 1, 2, 3, 4, 5, 6, 7, 8, 9)

	for _, v := range []float64{-1e9, 0, 50, 1e9} {
		if got := d.Detect(map[string]float64{"cpu": v}); len(got) != 0 {
			t.Errorf("value %v: expected no anomalies on short window, got %d", v, len(got))
		}
	}
}

func TestDetectSkipsUnknownMetric(t *testing.T) {
	d := newDetector(t, 10, 2.0)
	if got := d.Detect(map[string]float64{"never_seen": 1e9}); len(got) != 0 {
		t.Errorf("expected no anomalies for unknown metric, got %d", len(got))
	}
}

func TestDetectSkipsZeroVariance(t *testing.T) {
	d := newDetector(t, 10, 2.0)

	// Exactly windowSize constant samples: eligible, but std is zero.
	for i := 0; i < 10; i++ {
		feed(d, "test_metric", 50.0)
	}

	if got := d.Detect(map[string]float64{"test_metric": 50.0}); len(got) != 0 {
		t.Errorf("expected 0 anomalies on constant window, got %d", len(got))
	}
	if got := d.Detect(map[string]float64{"test_metric": 150.0}); len(got) != 0 {
		t.Errorf("expected 0 anomalies on constant window for far value, got %d", len(got))
	}
}

func TestDetectBoundary(t *testing.T) {
	const sensitivity = 2.0
	d := newDetector(t, 10, sensitivity)

	feed(d, "cpu", 40, 42, 44, 46, 48, 52, 54, 56, 58, 60)

	mean, std := meanStd(d.Store().Snapshot("cpu"))
	if std == 0 {
		t.Fatal("test window must have non-zero variance")
	}

	const eps = 0.01
	over := mean + (sensitivity+eps)*std
	under := mean + (sensitivity-eps)*std

	if got := d.Detect(map[string]float64{"cpu": over}); len(got) != 1 {
		t.Errorf("value just over the boundary: expected 1 anomaly, got %d", len(got))
	}
	if got := d.Detect(map[string]float64{"cpu": under}); len(got) != 0 {
		t.Errorf("value just under the boundary: expected 0 anomalies, got %d", len(got))
	}

	// Low-side outlier triggers too, and still reports the upper threshold.
	low := mean - (sensitivity+eps)*std
	got := d.Detect(map[string]float64{"cpu": low})
	if len(got) != 1 {
		t.Fatalf("low outlier: expected 1 anomaly, got %d", len(got))
	}
	wantThreshold := mean + sensitivity*std
	if math.Abs(got[0].Threshold-wantThreshold) > 1e-9 {
		t.Errorf("expected threshold %v, got %v", wantThreshold, got[0].Threshold)
	}
}

func TestDetectEndToEndScenario(t *testing.T) {
	d := newDetector(t, 10, 2.0)

	// History spanning 40-60: mean 50, std 10 by construction.
	feed(d, "test_metric", 40, 40, 40, 40, 40, 60, 60, 60, 60, 60)

	mean, std := meanStd(d.Store().Snapshot("test_metric"))
	if mean != 50 || std != 10 {
		t.Fatalf("expected mean=50 std=10, got mean=%v std=%v", mean, std)
	}

	got := d.Detect(map[string]float64{"test_metric": 50 + 4*10})
	if len(got) != 1 {
		t.Fatalf("expected 1 anomaly, got %d", len(got))
	}
	if got[0].Metric != "test_metric" {
		t.Errorf("expected metric test_metric, got %s", got[0].Metric)
	}
	if got[0].Value != 90 {
		t.Errorf("expected value 90, got %v", got[0].Value)
	}
	if math.Abs(got[0].Threshold-70) > 1e-9 {
		t.Errorf("expected threshold 70, got %v", got[0].Threshold)
	}
}

func TestDetectReadsWindowAsStored(t *testing.T) {
	d := newDetector(t, 10, 2.0)
	feed(d, "cpu", 40, 40, 40, 40, 40, 60, 60, 60, 60, 60)

	// Detect does not mutate history: repeated calls see the same window.
	before := d.Store().Snapshot("cpu")
	d.Detect(map[string]float64{"cpu": 1000})
	after := d.Store().Snapshot("cpu")

	if len(before) != len(after) {
		t.Fatalf("detect changed window length: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("detect mutated window at %d: %v -> %v", i, before[i], after[i])
		}
	}
}

func TestTrendClassification(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   TrendLabel
	}{
		{"strictly increasing", []float64{1, 2, 3, 4, 5}, TrendIncreasing},
		{"strictly decreasing", []float64{5, 4, 3, 2, 1}, TrendDecreasing},
		{"constant", []float64{3, 3, 3, 3, 3}, TrendStable},
		{"two increasing", []float64{1, 2}, TrendIncreasing},
		{"single sample", []float64{1}, TrendInsufficientData},
		{"empty", nil, TrendInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDetector(t, 60, 2.0)
			feed(d, "m", tt.values...)
			if got := d.Trend("m"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTrendUnknownMetric(t *testing.T) {
	d := newDetector(t, 60, 2.0)
	if got := d.Trend("missing"); got != TrendInsufficientData {
		t.Errorf("expected insufficient data, got %q", got)
	}
}

func TestStatsIdenticalValues(t *testing.T) {
	d := newDetector(t, 60, 2.0)
	feed(d, "m", 7, 7, 7, 7, 7)

	stats := d.Stats("m")
	if !stats.Valid {
		t.Fatal("expected valid stats")
	}
	if stats.Mean != 7 || stats.Min != 7 || stats.Max != 7 || stats.P95 != 7 {
		t.Errorf("expected mean=min=max=p95=7, got %+v", stats)
	}
	if stats.StdDev != 0 {
		t.Errorf("expected std 0, got %v", stats.StdDev)
	}
}

func TestStatsSentinel(t *testing.T) {
	d := newDetector(t, 60, 2.0)

	if stats := d.Stats("missing"); stats.Valid {
		t.Error("expected invalid stats for unknown metric")
	}

	feed(d, "m", 1)
	if stats := d.Stats("m"); stats.Valid {
		t.Error("expected invalid stats for single sample")
	}
}

func TestStatsComputation(t *testing.T) {
	d := newDetector(t, 60, 2.0)
	feed(d, "m", 10, 20, 30, 40, 50)

	stats := d.Stats("m")
	if !stats.Valid {
		t.Fatal("expected valid stats")
	}
	if stats.Mean != 30 {
		t.Errorf("expected mean 30, got %v", stats.Mean)
	}
	if stats.Min != 10 || stats.Max != 50 {
		t.Errorf("expected min 10 max 50, got min %v max %v", stats.Min, stats.Max)
	}
	// Population std of {10..50 step 10} is sqrt(200).
	if math.Abs(stats.StdDev-math.Sqrt(200)) > 1e-9 {
		t.Errorf("expected std %v, got %v", math.Sqrt(200), stats.StdDev)
	}
	// rank = 0.95*4 = 3.8 -> 40 + 0.8*(50-40) = 48.
	if math.Abs(stats.P95-48) > 1e-9 {
		t.Errorf("expected p95 48, got %v", stats.P95)
	}
}

func TestPercentileInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4}

	// rank = 0.5*3 = 1.5 -> midpoint of 2 and 3.
	if got := percentile(values, 50); got != 2.5 {
		t.Errorf("expected median 2.5, got %v", got)
	}
	if got := percentile(values, 0); got != 1 {
		t.Errorf("expected p0 1, got %v", got)
	}
	if got := percentile(values, 100); got != 4 {
		t.Errorf("expected p100 4, got %v", got)
	}
	if got := percentile([]float64{9}, 95); got != 9 {
		t.Errorf("expected single-value p95 9, got %v", got)
	}
}
