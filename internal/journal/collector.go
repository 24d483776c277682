package journal

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bc-dunia/hostguard/internal/detect"
)

// Collector buffers journal records through a bounded queue and flushes them
// to the emitter on an interval.
type Collector struct {
	config  *CollectorConfig
	queue   *BoundedQueue
	emitter *Emitter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
	closed  atomic.Bool
}

// NewCollector creates a collector over emitter. A nil config uses defaults;
// zero fields are filled in.
func NewCollector(config *CollectorConfig, emitter *Emitter) *Collector {
	defaults := DefaultCollectorConfig()

	if config == nil {
		config = defaults
	}

	cfg := *config
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaults.QueueSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaults.FlushInterval
	}

	return &Collector{
		config:  &cfg,
		queue:   NewBoundedQueue(cfg.QueueSize),
		emitter: emitter,
	}
}

// Start launches the flush goroutine. Safe to call once.
func (c *Collector) Start(ctx context.Context) error {
	if c.started.Swap(true) {
		return nil
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.processLoop()

	return nil
}

// Stop drains the queue, flushes the emitter, and closes it. Blocks until
// the drain completes or ctx expires.
func (c *Collector) Stop(ctx context.Context) error {
	if c.closed.Swap(true) {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.queue.Close()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if c.emitter != nil {
		return c.emitter.Close()
	}

	return nil
}

// RecordAnomaly journals a statistical anomaly. Critical tier.
func (c *Collector) RecordAnomaly(a detect.Anomaly) {
	if c.closed.Load() {
		return
	}
	c.queue.Enqueue(&Record{
		Type:      TypeAnomaly,
		Timestamp: time.Now(),
		Tier:      TierCritical,
		Metric:    a.Metric,
		Value:     a.Value,
		Threshold: a.Threshold,
	})
}

// RecordThresholdViolation journals a static threshold violation. Critical tier.
func (c *Collector) RecordThresholdViolation(v detect.ThresholdViolation) {
	if c.closed.Load() {
		return
	}
	c.queue.Enqueue(&Record{
		Type:      TypeThreshold,
		Timestamp: time.Now(),
		Tier:      TierCritical,
		Metric:    v.Metric,
		Value:     v.Value,
		Threshold: v.Threshold,
	})
}

// RecordRemediation journals a remediation dispatch outcome. Critical tier.
func (c *Collector) RecordRemediation(label string, attempted bool, err error) {
	if c.closed.Load() {
		return
	}
	record := &Record{
		Type:      TypeRemediation,
		Timestamp: time.Now(),
		Tier:      TierCritical,
		Label:     label,
		Attempted: attempted,
	}
	if err != nil {
		record.Error = err.Error()
	}
	c.queue.Enqueue(record)
}

// RecordCycleError journals a recoverable per-cycle failure. Critical tier.
func (c *Collector) RecordCycleError(kind string, err error) {
	if c.closed.Load() {
		return
	}
	c.queue.Enqueue(&Record{
		Type:      TypeCycleError,
		Timestamp: time.Now(),
		Tier:      TierCritical,
		Label:     kind,
		Error:     err.Error(),
	})
}

// RecordCycle journals a per-cycle summary. Detail tier; shed first under
// backpressure.
func (c *Collector) RecordCycle(samples int) {
	if c.closed.Load() {
		return
	}
	c.queue.Enqueue(&Record{
		Type:      TypeCycle,
		Timestamp: time.Now(),
		Tier:      TierDetail,
		Samples:   samples,
	})
}

func (c *Collector) processLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			c.drainQueue()
			return
		case <-ticker.C:
			c.processBatch()
		}
	}
}

func (c *Collector) processBatch() {
	records := c.queue.TryDequeueBatch(c.config.BatchSize)
	if len(records) == 0 {
		return
	}
	c.writeRecords(records)
}

func (c *Collector) drainQueue() {
	for {
		records := c.queue.TryDequeueBatch(c.config.BatchSize)
		if len(records) == 0 {
			break
		}
		c.writeRecords(records)
	}
	if c.emitter != nil {
		_ = c.emitter.Flush()
	}
}

func (c *Collector) writeRecords(records []*Record) {
	if c.emitter == nil {
		return
	}
	for _, record := range records {
		// Emit errors are counted by the emitter; dropping the record here
		// is preferable to blocking the agent.
		_ = c.emitter.Emit(record)
	}
}
