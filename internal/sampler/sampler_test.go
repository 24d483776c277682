package sampler

import (
	"context"
	"testing"
)

func TestFuncAdapter(t *testing.T) {
	s := Func(func(ctx context.Context) (map[string]float64, error) {
		return map[string]float64{"cpu": 12.5}, nil
	})

	got, err := s.Sample(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["cpu"] != 12.5 {
		t.Errorf("expected cpu 12.5, got %v", got["cpu"])
	}
}

func TestSystemIgnoresUnknownMetrics(t *testing.T) {
	s := NewSystem([]string{"bogus"})

	got, err := s.Sample(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result for unknown metric, got %v", got)
	}
}

func TestSystemCanceledContext(t *testing.T) {
	s := NewSystem([]string{MetricCPU, MetricMemory})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Sample(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestSystemMemorySample(t *testing.T) {
	s := NewSystem([]string{MetricMemory})

	got, err := s.Sample(context.Background())
	if err != nil {
		t.Skipf("memory counters unavailable on this host: %v", err)
	}
	if v, ok := got[MetricMemory]; ok && (v < 0 || v > 100) {
		t.Errorf("memory percent out of range: %v", v)
	}
}
