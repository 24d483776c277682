// Package retention provides journal file retention management.
package retention

import "time"

// Config holds retention policy configuration.
type Config struct {
	// JournalDir is the directory holding journal JSONL files.
	JournalDir string

	// JournalSuffix selects which files in JournalDir are subject to
	// cleanup, matched against the file name. Callers derive it from the
	// configured journal path so a journal named anomalies.log is cleaned
	// the same as one named anomalies.jsonl.
	// Default: ".jsonl"
	JournalSuffix string

	// JournalTTLHours is the time-to-live for journal files in hours.
	// Files whose last modification is older than this are deleted.
	// Default: 168 (7 days)
	JournalTTLHours int

	// CleanupInterval is the interval between cleanup runs.
	// Default: 1 hour
	CleanupInterval time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		JournalSuffix:   ".jsonl",
		JournalTTLHours: 168, // 7 days
		CleanupInterval: time.Hour,
	}
}

// WithDefaults returns a copy of the config with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	result := c
	if result.JournalSuffix == "" {
		result.JournalSuffix = ".jsonl"
	}
	if result.JournalTTLHours <= 0 {
		result.JournalTTLHours = 168
	}
	if result.CleanupInterval <= 0 {
		result.CleanupInterval = time.Hour
	}
	return result
}
