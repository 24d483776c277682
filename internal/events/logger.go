// Package events provides structured logging for key events in hostguard.
package events

import (
	"io"
	"log/slog"
	"os"

	"github.com/bc-dunia/hostguard/internal/detect"
)

// EventLogger provides structured JSON logging for agent cycle events.
type EventLogger struct {
	logger   *slog.Logger
	hostname string
}

// NewEventLogger creates an EventLogger with JSON output to stdout.
// Every record carries the hostname as a base attribute.
func NewEventLogger(hostname string, level slog.Level) *EventLogger {
	return NewEventLoggerWithWriter(hostname, level, os.Stdout)
}

// NewEventLoggerWithWriter creates an EventLogger with JSON output to a
// custom writer. Useful for testing or redirecting output.
func NewEventLoggerWithWriter(hostname string, level slog.Level, w io.Writer) *EventLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	logger := slog.New(handler).With(
		"hostname", hostname,
	)
	return &EventLogger{
		logger:   logger,
		hostname: hostname,
	}
}

// Slog returns the underlying slog logger for components that take one.
func (el *EventLogger) Slog() *slog.Logger {
	return el.logger
}

// LogStartup logs agent startup.
// event: "agent_started"
// Attributes: interval_seconds, window_size, sensitivity, metrics
func (el *EventLogger) LogStartup(intervalSeconds, windowSize int, sensitivity float64, metrics []string) {
	el.logger.Info("agent_started",
		"interval_seconds", intervalSeconds,
		"window_size", windowSize,
		"sensitivity", sensitivity,
		"metrics", metrics,
	)
}

// LogCycleMetric logs one metric's per-cycle observation.
// event: "metric_observed"
// Attributes: metric, value, trend, and when stats are valid: mean, std, min, max, p95
func (el *EventLogger) LogCycleMetric(metric string, value float64, trend detect.TrendLabel, stats detect.SummaryStats) {
	attrs := []any{
		"metric", metric,
		"value", value,
		"trend", string(trend),
	}
	if stats.Valid {
		attrs = append(attrs,
			"mean", stats.Mean,
			"std", stats.StdDev,
			"min", stats.Min,
			"max", stats.Max,
			"p95", stats.P95,
		)
	}
	el.logger.Info("metric_observed", attrs...)
}

// LogAnomaly logs a statistical anomaly.
// event: "anomaly_detected"
// Attributes: metric, value, threshold
func (el *EventLogger) LogAnomaly(a detect.Anomaly) {
	el.logger.Warn("anomaly_detected",
		"metric", a.Metric,
		"value", a.Value,
		"threshold", a.Threshold,
	)
}

// LogThresholdViolation logs a static threshold violation.
// event: "threshold_exceeded"
// Attributes: metric, value, threshold, description
func (el *EventLogger) LogThresholdViolation(v detect.ThresholdViolation) {
	el.logger.Warn("threshold_exceeded",
		"metric", v.Metric,
		"value", v.Value,
		"threshold", v.Threshold,
		"description", v.Description,
	)
}

// LogRemediation logs a remediation dispatch outcome.
// event: "remediation"
// Attributes: label, attempted, error
func (el *EventLogger) LogRemediation(label string, attempted bool, err error) {
	attrs := []any{
		"label", label,
		"attempted", attempted,
	}
	if err != nil {
		attrs = append(attrs, "error", err.Error())
	}
	switch {
	case err != nil:
		el.logger.Error("remediation", attrs...)
	case !attempted:
		el.logger.Warn("remediation", attrs...)
	default:
		el.logger.Info("remediation", attrs...)
	}
}

// LogCycleError logs a recoverable per-cycle failure.
// event: "cycle_error"
// Attributes: kind, error
func (el *EventLogger) LogCycleError(kind string, err error) {
	el.logger.Error("cycle_error",
		"kind", kind,
		"error", err.Error(),
	)
}

// LogShutdown logs clean agent shutdown.
// event: "agent_stopped"
func (el *EventLogger) LogShutdown(reason string) {
	el.logger.Info("agent_stopped",
		"reason", reason,
	)
}

// NoopEventLogger returns an event logger that discards all events.
// Useful for testing or when event logging is disabled.
func NoopEventLogger() *EventLogger {
	return NewEventLoggerWithWriter("", slog.LevelInfo, io.Discard)
}
