package journal

import (
	"sync"
	"sync/atomic"
)

// BoundedQueue is a thread-safe bounded queue with tier-based backpressure.
// When the queue is full, detail records are shed first. Critical records are
// never dropped.
type BoundedQueue struct {
	capacity int
	records  []*Record
	mu       sync.Mutex
	notEmpty *sync.Cond

	totalEnqueued atomic.Int64
	totalDequeued atomic.Int64
	droppedDetail atomic.Int64

	closed atomic.Bool
}

// NewBoundedQueue creates a new bounded queue with the specified capacity.
func NewBoundedQueue(capacity int) *BoundedQueue {
	if capacity <= 0 {
		capacity = 1000
	}
	q := &BoundedQueue{
		capacity: capacity,
		records:  make([]*Record, 0, capacity),
	}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Enqueue adds a record to the queue with tier-based backpressure.
// Returns true if the record was enqueued, false if it was dropped.
// Critical records are never dropped - they may cause the queue to exceed
// capacity.
func (q *BoundedQueue) Enqueue(record *Record) bool {
	if q.closed.Load() {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed.Load() {
		return false
	}

	if record.Tier == TierCritical {
		q.records = append(q.records, record)
		q.totalEnqueued.Add(1)
		q.notEmpty.Signal()
		return true
	}

	if len(q.records) >= q.capacity {
		// Shed the oldest detail record to make room; if the queue is full
		// of critical records, drop the incoming detail record instead.
		if !q.shedDetailLocked() {
			q.droppedDetail.Add(1)
			return false
		}
	}

	q.records = append(q.records, record)
	q.totalEnqueued.Add(1)
	q.notEmpty.Signal()
	return true
}

// shedDetailLocked removes and drops the first detail record found.
// Must be called with mu held.
func (q *BoundedQueue) shedDetailLocked() bool {
	for i, r := range q.records {
		if r.Tier == TierDetail {
			q.records = append(q.records[:i], q.records[i+1:]...)
			q.droppedDetail.Add(1)
			return true
		}
	}
	return false
}

// TryDequeueBatch attempts to dequeue up to n records without blocking.
// Returns nil if the queue is empty.
func (q *BoundedQueue) TryDequeueBatch(n int) []*Record {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) == 0 {
		return nil
	}

	count := n
	if count > len(q.records) {
		count = len(q.records)
	}

	batch := make([]*Record, count)
	copy(batch, q.records[:count])
	q.records = q.records[count:]
	q.totalDequeued.Add(int64(count))
	return batch
}

// Len returns the current number of queued records.
func (q *BoundedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Dropped returns the number of detail records shed under backpressure.
func (q *BoundedQueue) Dropped() int64 {
	return q.droppedDetail.Load()
}

// Close marks the queue as closed and wakes any waiters. Records already
// queued remain dequeueable.
func (q *BoundedQueue) Close() {
	if q.closed.Swap(true) {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.notEmpty.Broadcast()
}
