// Package agent runs the monitoring cycle: sample, update history, detect,
// remediate, sleep.
package agent

// FailureKind classifies the recoverable failures a cycle can produce.
type FailureKind string

const (
	// FailureSampling means the sampler returned an error.
	FailureSampling FailureKind = "sampling"

	// FailureRemediation means a remediation dispatch returned an error.
	FailureRemediation FailureKind = "remediation"
)

// CycleFailure is one recoverable failure observed during a cycle.
type CycleFailure struct {
	Kind FailureKind
	Err  error
}

// CycleResult summarizes one completed monitoring cycle. A cycle with
// failures still completes; the loop always proceeds to the next interval.
type CycleResult struct {
	// Samples is the number of metrics observed this cycle.
	Samples int

	// Anomalies is the number of statistical anomalies detected.
	Anomalies int

	// Violations is the number of static threshold violations.
	Violations int

	// Remediations is the number of remediation dispatches attempted.
	Remediations int

	// Failures lists the recoverable failures the cycle tolerated.
	Failures []CycleFailure
}

// OK reports whether the cycle completed without recoverable failures.
func (r CycleResult) OK() bool {
	return len(r.Failures) == 0
}
