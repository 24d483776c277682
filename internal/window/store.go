// Package window provides bounded per-metric sample history for the agent.
package window

import (
	"sync"
)

// Store maps metric names to fixed-capacity rolling windows of samples.
// Windows are created lazily on first observation and hold the most recent
// capacity values in arrival order, oldest first. Eviction is FIFO.
type Store struct {
	capacity int
	mu       sync.RWMutex
	windows  map[string][]float64
}

// NewStore creates a Store where each metric retains at most capacity samples.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 60
	}
	return &Store{
		capacity: capacity,
		windows:  make(map[string][]float64),
	}
}

// Capacity returns the per-metric sample limit.
func (s *Store) Capacity() int {
	return s.capacity
}

// Update appends each sample value to its metric's window, creating the
// window if the metric has not been seen before. Windows that exceed the
// capacity are trimmed from the front so the most recent samples survive.
// A metric absent from samples is left untouched for this cycle.
func (s *Store) Update(samples map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for metric, value := range samples {
		w := append(s.windows[metric], value)
		if len(w) > s.capacity {
			w = w[len(w)-s.capacity:]
		}
		s.windows[metric] = w
	}
}

// Snapshot returns a copy of the stored window for metric, oldest first.
// Unknown metrics yield nil. The returned slice never aliases internal state.
func (s *Store) Snapshot(metric string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.windows[metric]
	if !ok {
		return nil
	}
	out := make([]float64, len(w))
	copy(out, w)
	return out
}

// Len returns the number of stored samples for metric, 0 if unknown.
func (s *Store) Len(metric string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.windows[metric])
}

// Metrics returns the names of all metrics that have at least one sample.
func (s *Store) Metrics() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.windows))
	for metric := range s.windows {
		names = append(names, metric)
	}
	return names
}
