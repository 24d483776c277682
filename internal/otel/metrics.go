// Package otel provides OpenTelemetry metrics integration for hostguard.
package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// MetricsConfig holds configuration for the OpenTelemetry metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active. Default: false (no-op).
	Enabled bool

	// ServiceName is the name of the service for metric attribution.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// ExporterType specifies which exporter to use.
	ExporterType ExporterType

	// OTLPEndpoint is the endpoint for OTLP exporters (e.g., "localhost:4317").
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP connections.
	OTLPInsecure bool

	// Attributes are additional attributes to add to all metrics.
	Attributes map[string]string
}

// DefaultMetricsConfig returns a default configuration with metrics disabled.
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:      false,
		ServiceName:  "hostguard",
		ExporterType: ExporterNone,
	}
}

// Metrics wraps OpenTelemetry metrics functionality with hostguard-specific helpers.
type Metrics struct {
	config        *MetricsConfig
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	shutdown      func(context.Context) error
	mu            sync.Mutex

	// Metric instruments
	metricValue        metric.Float64Gauge
	anomalyCounter     metric.Int64Counter
	remediationCounter metric.Int64Counter
	cycleErrorCounter  metric.Int64Counter
	cycleDuration      metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with the given configuration.
func NewMetrics(ctx context.Context, cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil {
		cfg = DefaultMetricsConfig()
	}

	m := &Metrics{
		config: cfg,
	}

	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		// Use no-op meter when disabled
		m.meterProvider = sdkmetric.NewMeterProvider()
		m.meter = m.meterProvider.Meter(cfg.ServiceName)
		m.shutdown = func(context.Context) error { return nil }
		return m, nil
	}

	exporter, err := m.createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	res, err := m.createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	m.meterProvider = mp
	m.meter = mp.Meter(cfg.ServiceName)
	m.shutdown = mp.Shutdown

	if err := m.registerInstruments(); err != nil {
		return nil, fmt.Errorf("failed to register metric instruments: %w", err)
	}

	return m, nil
}

// createExporter creates the appropriate metrics exporter based on configuration.
func (m *Metrics) createExporter(ctx context.Context, cfg *MetricsConfig) (sdkmetric.Exporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		return stdoutmetric.New()

	case ExporterOTLPGRPC:
		opts := []otlpmetricgrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)

	case ExporterOTLPHTTP:
		opts := []otlpmetrichttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.ExporterType)
	}
}

// createResource creates the OpenTelemetry resource with service information.
func (m *Metrics) createResource(cfg *MetricsConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
	}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", attrs...),
	)
}

// registerInstruments creates and registers all metric instruments.
func (m *Metrics) registerInstruments() error {
	var err error

	m.metricValue, err = m.meter.Float64Gauge(
		"hostguard.metric.value",
		metric.WithDescription("Current value of a sampled host metric"),
	)
	if err != nil {
		return fmt.Errorf("failed to create metric value gauge: %w", err)
	}

	m.anomalyCounter, err = m.meter.Int64Counter(
		"hostguard.anomalies",
		metric.WithDescription("Count of detected anomalies by metric and kind"),
	)
	if err != nil {
		return fmt.Errorf("failed to create anomaly counter: %w", err)
	}

	m.remediationCounter, err = m.meter.Int64Counter(
		"hostguard.remediations",
		metric.WithDescription("Count of remediation dispatches by outcome"),
	)
	if err != nil {
		return fmt.Errorf("failed to create remediation counter: %w", err)
	}

	m.cycleErrorCounter, err = m.meter.Int64Counter(
		"hostguard.cycle.errors",
		metric.WithDescription("Count of recoverable cycle failures by kind"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cycle error counter: %w", err)
	}

	m.cycleDuration, err = m.meter.Float64Histogram(
		"hostguard.cycle.duration",
		metric.WithDescription("Duration of monitoring cycles"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("failed to create cycle duration histogram: %w", err)
	}

	return nil
}

// RecordMetricValue records the current value of a sampled metric.
func (m *Metrics) RecordMetricValue(ctx context.Context, name string, value float64) {
	if m.metricValue == nil {
		return
	}

	m.metricValue.Record(ctx, value, metric.WithAttributes(
		attribute.String("metric", name),
	))
}

// RecordAnomaly increments the anomaly counter. kind is "statistical" or
// "threshold".
func (m *Metrics) RecordAnomaly(ctx context.Context, name, kind string) {
	if m.anomalyCounter == nil {
		return
	}

	m.anomalyCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("metric", name),
		attribute.String("kind", kind),
	))
}

// RecordRemediation increments the remediation counter.
func (m *Metrics) RecordRemediation(ctx context.Context, label string, attempted bool) {
	if m.remediationCounter == nil {
		return
	}

	m.remediationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("label", label),
		attribute.Bool("attempted", attempted),
	))
}

// RecordCycleError increments the cycle error counter for the given kind.
func (m *Metrics) RecordCycleError(ctx context.Context, kind string) {
	if m.cycleErrorCounter == nil {
		return
	}

	m.cycleErrorCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
	))
}

// RecordCycleDuration records the elapsed time of one monitoring cycle.
func (m *Metrics) RecordCycleDuration(ctx context.Context, durationMs float64) {
	if m.cycleDuration == nil {
		return
	}

	m.cycleDuration.Record(ctx, durationMs)
}

// Shutdown gracefully shuts down the metrics provider, flushing any pending metrics.
func (m *Metrics) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.shutdown != nil {
		return m.shutdown(ctx)
	}
	return nil
}

// Enabled returns whether metrics collection is enabled.
func (m *Metrics) Enabled() bool {
	return m.config.Enabled && m.config.ExporterType != ExporterNone
}

// MeterProvider returns the underlying meter provider.
func (m *Metrics) MeterProvider() *sdkmetric.MeterProvider {
	return m.meterProvider
}

// NoopMetrics returns a metrics instance that does nothing (for testing or when disabled).
func NoopMetrics() *Metrics {
	cfg := DefaultMetricsConfig()
	mp := sdkmetric.NewMeterProvider()
	return &Metrics{
		config:        cfg,
		meterProvider: mp,
		meter:         mp.Meter(cfg.ServiceName),
		shutdown:      func(context.Context) error { return nil },
	}
}
