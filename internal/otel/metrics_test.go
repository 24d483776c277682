package otel

import (
	"context"
	"testing"
)

func TestDefaultMetricsConfig(t *testing.T) {
	cfg := DefaultMetricsConfig()
	if cfg == nil {
		t.Fatal("DefaultMetricsConfig returned nil")
	}
	if cfg.Enabled {
		t.Error("Expected metrics to be disabled by default")
	}
	if cfg.ServiceName != "hostguard" {
		t.Errorf("Expected service name 'hostguard', got %q", cfg.ServiceName)
	}
	if cfg.ExporterType != ExporterNone {
		t.Errorf("Expected ExporterNone, got %v", cfg.ExporterType)
	}
}

func TestNewMetrics_Disabled(t *testing.T) {
	ctx := context.Background()

	m, err := NewMetrics(ctx, DefaultMetricsConfig())
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	defer m.Shutdown(ctx)

	if m.Enabled() {
		t.Error("Expected metrics to be disabled")
	}

	// Recording on a disabled instance is a no-op, never a panic.
	m.RecordMetricValue(ctx, "cpu", 42.0)
	m.RecordAnomaly(ctx, "cpu", "statistical")
	m.RecordRemediation(ctx, "cpu anomaly", true)
	m.RecordCycleError(ctx, "sampling")
	m.RecordCycleDuration(ctx, 12.5)
}

func TestNewMetrics_NilConfig(t *testing.T) {
	ctx := context.Background()

	m, err := NewMetrics(ctx, nil)
	if err != nil {
		t.Fatalf("NewMetrics with nil config failed: %v", err)
	}
	defer m.Shutdown(ctx)

	if m.Enabled() {
		t.Error("Expected metrics to be disabled with nil config")
	}
}

func TestNewMetrics_StdoutExporter(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultMetricsConfig()
	cfg.Enabled = true
	cfg.ExporterType = ExporterStdout

	m, err := NewMetrics(ctx, cfg)
	if err != nil {
		t.Fatalf("NewMetrics with stdout exporter failed: %v", err)
	}
	defer m.Shutdown(ctx)

	if !m.Enabled() {
		t.Error("Expected metrics to be enabled")
	}

	m.RecordMetricValue(ctx, "cpu", 42.0)
	m.RecordAnomaly(ctx, "cpu", "threshold")
	m.RecordCycleDuration(ctx, 5.0)
}

func TestNewMetrics_UnknownExporter(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultMetricsConfig()
	cfg.Enabled = true
	cfg.ExporterType = "bogus"

	if _, err := NewMetrics(ctx, cfg); err == nil {
		t.Error("Expected error for unknown exporter type")
	}
}

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics()
	ctx := context.Background()

	m.RecordMetricValue(ctx, "cpu", 1.0)
	if err := m.Shutdown(ctx); err != nil {
		t.Errorf("noop shutdown failed: %v", err)
	}
}
