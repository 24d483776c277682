package agent

import (
	"context"
	"time"

	"github.com/bc-dunia/hostguard/internal/detect"
	"github.com/bc-dunia/hostguard/internal/events"
	"github.com/bc-dunia/hostguard/internal/journal"
	"github.com/bc-dunia/hostguard/internal/otel"
	"github.com/bc-dunia/hostguard/internal/remedy"
	"github.com/bc-dunia/hostguard/internal/sampler"
)

// Options configures a Loop.
type Options struct {
	// Interval is the delay between cycles.
	Interval time.Duration

	// Thresholds maps metric names to static violation thresholds.
	Thresholds map[string]float64

	// StaticCheck enables the static threshold pass.
	StaticCheck bool

	// StatisticalCheck enables the z-score pass.
	StatisticalCheck bool

	// Remediate enables remediation dispatch for detected anomalies.
	Remediate bool
}

// Loop drives the monitoring cycle. It owns the rolling history via the
// detector's store and is the store's single writer; samplers and dispatchers
// may block, which stalls the cycle but never the shutdown path between
// cycles.
type Loop struct {
	opts       Options
	detector   *detect.Detector
	sampler    sampler.Sampler
	dispatcher remedy.Dispatcher
	logger     *events.EventLogger
	collector  *journal.Collector
	metrics    *otel.Metrics
	tracer     *otel.Tracer

	cycles int64
}

// NewLoop wires a Loop. logger, collector, metrics, and tracer may be nil;
// nil observability collaborators are replaced with no-ops, a nil dispatcher
// disables remediation.
func NewLoop(
	opts Options,
	detector *detect.Detector,
	s sampler.Sampler,
	dispatcher remedy.Dispatcher,
	logger *events.EventLogger,
	collector *journal.Collector,
	metrics *otel.Metrics,
	tracer *otel.Tracer,
) *Loop {
	if logger == nil {
		logger = events.NoopEventLogger()
	}
	if metrics == nil {
		metrics = otel.NoopMetrics()
	}
	if tracer == nil {
		tracer = otel.NoopTracer()
	}
	if dispatcher == nil {
		opts.Remediate = false
	}
	return &Loop{
		opts:       opts,
		detector:   detector,
		sampler:    s,
		dispatcher: dispatcher,
		logger:     logger,
		collector:  collector,
		metrics:    metrics,
		tracer:     tracer,
	}
}

// Run executes cycles until ctx is canceled. Cancellation is observed
// between cycles or during the sleep; a cycle in progress always runs to
// completion. Run never returns a cycle's error - per-cycle failures are
// logged and journaled, and the loop continues.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	l.RunCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			l.logger.LogShutdown("context canceled")
			return
		case <-ticker.C:
			l.RunCycle(ctx)
		}
	}
}

// RunCycle executes exactly one monitoring cycle and reports its result.
// Exported for single-shot invocations and tests.
func (l *Loop) RunCycle(ctx context.Context) CycleResult {
	l.cycles++
	start := time.Now()

	spanCtx, span := l.tracer.StartCycleSpan(ctx, l.cycles)
	defer span.End()

	var result CycleResult

	samples, err := l.sampler.Sample(spanCtx)
	if err != nil {
		result.Failures = append(result.Failures, CycleFailure{Kind: FailureSampling, Err: err})
		l.logger.LogCycleError(string(FailureSampling), err)
		l.metrics.RecordCycleError(spanCtx, string(FailureSampling))
		otel.RecordError(span, err, string(FailureSampling))
		if l.collector != nil {
			l.collector.RecordCycleError(string(FailureSampling), err)
		}
		// Proceed with whatever was obtained, possibly nothing.
	}
	result.Samples = len(samples)

	// History is updated before detection, so the current sample is part of
	// the window it is compared against.
	l.detector.Store().Update(samples)

	for metric, value := range samples {
		l.logger.LogCycleMetric(metric, value, l.detector.Trend(metric), l.detector.Stats(metric))
		l.metrics.RecordMetricValue(spanCtx, metric, value)
	}

	if l.opts.StaticCheck {
		for _, violation := range detect.CheckThresholds(samples, l.opts.Thresholds) {
			result.Violations++
			l.logger.LogThresholdViolation(violation)
			l.metrics.RecordAnomaly(spanCtx, violation.Metric, "threshold")
			if l.collector != nil {
				l.collector.RecordThresholdViolation(violation)
			}
			l.remediate(spanCtx, violation.Label(), &result)
		}
	}

	if l.opts.StatisticalCheck {
		for _, anomaly := range l.detector.Detect(samples) {
			result.Anomalies++
			l.logger.LogAnomaly(anomaly)
			l.metrics.RecordAnomaly(spanCtx, anomaly.Metric, "statistical")
			if l.collector != nil {
				l.collector.RecordAnomaly(anomaly)
			}
			l.remediate(spanCtx, anomaly.Label(), &result)
		}
	}

	if l.collector != nil {
		l.collector.RecordCycle(result.Samples)
	}
	l.metrics.RecordCycleDuration(spanCtx, float64(time.Since(start).Milliseconds()))

	return result
}

func (l *Loop) remediate(ctx context.Context, label string, result *CycleResult) {
	if !l.opts.Remediate {
		return
	}

	result.Remediations++
	attempted, err := l.dispatcher.Remediate(ctx, label)
	if err != nil {
		result.Failures = append(result.Failures, CycleFailure{Kind: FailureRemediation, Err: err})
	}

	l.logger.LogRemediation(label, attempted, err)
	l.metrics.RecordRemediation(ctx, label, attempted)
	if l.collector != nil {
		l.collector.RecordRemediation(label, attempted, err)
	}
}
