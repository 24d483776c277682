// Package journal provides durable JSONL recording of detection outcomes.
package journal

import (
	"encoding/json"
	"time"
)

// Tier represents the priority of a journal record. Critical records are
// never dropped; detail records can be shed under backpressure.
type Tier int

const (
	// TierCritical covers anomalies, threshold violations, and remediation
	// outcomes (never dropped).
	TierCritical Tier = 0

	// TierDetail covers per-cycle detail records (first to be shed).
	TierDetail Tier = 1
)

// Record types.
const (
	TypeAnomaly     = "anomaly"
	TypeThreshold   = "threshold"
	TypeRemediation = "remediation"
	TypeCycleError  = "cycle_error"
	TypeCycle       = "cycle"
)

// Record is a single journal entry in JSONL form.
type Record struct {
	// Type is one of the Type* constants.
	Type string `json:"type"`

	// Timestamp is when the record was created.
	Timestamp time.Time `json:"ts"`

	// Tier controls shedding; not serialized.
	Tier Tier `json:"-"`

	// Metric is the metric name for anomaly/threshold records.
	Metric string `json:"metric,omitempty"`

	// Value is the observed value for anomaly/threshold records.
	Value float64 `json:"value,omitempty"`

	// Threshold is the boundary that was crossed.
	Threshold float64 `json:"threshold,omitempty"`

	// Label is the remediation routing label for remediation records.
	Label string `json:"label,omitempty"`

	// Attempted reports whether an automated remedy ran.
	Attempted bool `json:"attempted,omitempty"`

	// Error carries the failure message for error records.
	Error string `json:"error,omitempty"`

	// Samples is the number of metrics observed, for cycle records.
	Samples int `json:"samples,omitempty"`
}

// MarshalJSONL serializes the record as a single JSON line without the
// trailing newline.
func (r *Record) MarshalJSONL() ([]byte, error) {
	return json.Marshal(r)
}

// CollectorConfig holds configuration for the journal collector.
type CollectorConfig struct {
	// QueueSize is the maximum number of records in the queue.
	QueueSize int

	// BatchSize is the number of records per flush batch.
	BatchSize int

	// FlushInterval is how often queued records are written out.
	FlushInterval time.Duration
}

// DefaultCollectorConfig returns sensible defaults for the collector.
func DefaultCollectorConfig() *CollectorConfig {
	return &CollectorConfig{
		QueueSize:     1000,
		BatchSize:     100,
		FlushInterval: time.Second,
	}
}

// EmitterConfig holds configuration for the journal emitter.
type EmitterConfig struct {
	// OutputPath is the path to write JSONL output.
	OutputPath string

	// BufferSize is the write buffer size in bytes.
	BufferSize int

	// SyncOnWrite forces sync after each write.
	SyncOnWrite bool
}

// DefaultEmitterConfig returns sensible defaults for the emitter.
func DefaultEmitterConfig() *EmitterConfig {
	return &EmitterConfig{
		BufferSize:  64 * 1024,
		SyncOnWrite: false,
	}
}
