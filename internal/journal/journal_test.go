package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bc-dunia/hostguard/internal/detect"
)

func TestQueueCriticalNeverDropped(t *testing.T) {
	q := NewBoundedQueue(2)

	for i := 0; i < 10; i++ {
		if !q.Enqueue(&Record{Type: TypeAnomaly, Tier: TierCritical}) {
			t.Fatalf("critical record %d was dropped", i)
		}
	}
	if q.Len() != 10 {
		t.Errorf("expected 10 queued records, got %d", q.Len())
	}
}

func TestQueueShedsDetailUnderPressure(t *testing.T) {
	q := NewBoundedQueue(3)

	for i := 0; i < 3; i++ {
		q.Enqueue(&Record{Type: TypeCycle, Tier: TierDetail, Samples: i})
	}

	// Queue is full; the oldest detail record is shed to admit the new one.
	if !q.Enqueue(&Record{Type: TypeCycle, Tier: TierDetail, Samples: 3}) {
		t.Fatal("expected enqueue to succeed by shedding")
	}
	if q.Len() != 3 {
		t.Errorf("expected queue to stay at capacity, got %d", q.Len())
	}
	if q.Dropped() != 1 {
		t.Errorf("expected 1 dropped record, got %d", q.Dropped())
	}

	batch := q.TryDequeueBatch(10)
	if batch[0].Samples != 1 {
		t.Errorf("expected oldest surviving record to be sample 1, got %d", batch[0].Samples)
	}
}

func TestQueueDropsDetailWhenFullOfCritical(t *testing.T) {
	q := NewBoundedQueue(2)

	q.Enqueue(&Record{Tier: TierCritical})
	q.Enqueue(&Record{Tier: TierCritical})

	if q.Enqueue(&Record{Tier: TierDetail}) {
		t.Error("detail record should be dropped when queue is full of critical records")
	}
}

func TestQueueClosedRejectsEnqueue(t *testing.T) {
	q := NewBoundedQueue(10)
	q.Close()
	if q.Enqueue(&Record{Tier: TierCritical}) {
		t.Error("closed queue must reject records")
	}
}

func TestEmitterWritesJSONL(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitterWithWriter(&buf, nil)

	if err := e.Emit(&Record{
		Type:      TypeAnomaly,
		Timestamp: time.Unix(0, 0).UTC(),
		Metric:    "cpu",
		Value:     95,
		Threshold: 70,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Flush(); err != nil {
		t.Fatal(err)
	}

	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if rec["type"] != TypeAnomaly || rec["metric"] != "cpu" {
		t.Errorf("unexpected record: %v", rec)
	}
	if e.TotalWritten() != 1 {
		t.Errorf("expected 1 written, got %d", e.TotalWritten())
	}
}

func TestCollectorLifecycle(t *testing.T) {
	var buf bytes.Buffer
	e := NewEmitterWithWriter(&buf, nil)
	c := NewCollector(&CollectorConfig{FlushInterval: 10 * time.Millisecond}, e)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	c.RecordAnomaly(detect.Anomaly{Metric: "cpu", Value: 95, Threshold: 70})
	c.RecordThresholdViolation(detect.ThresholdViolation{Metric: "memory", Value: 90, Threshold: 85})
	c.RecordRemediation("cpu anomaly", true, nil)
	c.RecordCycleError("sampling", errors.New("boom"))
	c.RecordCycle(3)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 journal lines, got %d: %q", len(lines), buf.String())
	}

	types := make(map[string]int, len(lines))
	for _, line := range lines {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("invalid JSONL line %q: %v", line, err)
		}
		types[rec["type"].(string)]++
	}
	for _, want := range []string{TypeAnomaly, TypeThreshold, TypeRemediation, TypeCycleError, TypeCycle} {
		if types[want] != 1 {
			t.Errorf("expected one %s record, got %d", want, types[want])
		}
	}
}

func TestCollectorStopIsIdempotent(t *testing.T) {
	c := NewCollector(nil, nil)
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatal(err)
	}

	// Records after close are ignored without panicking.
	c.RecordCycle(1)
}
