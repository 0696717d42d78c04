package retriever

import (
	"sync"
	"time"
)

// QueryEvent records one search call's stage-by-stage timings, the
// supplemented per-query telemetry feature: the distilled spec's §4.9
// algorithm names the stages but not how to observe their cost in
// production, so this adapts the teacher's query-metrics ring-buffer
// pattern to the retriever's own stages instead of query-type counters.
type QueryEvent struct {
	Query          string
	Mode           Mode
	ResultCount    int
	ExpandLatency  time.Duration
	VectorLatency  time.Duration
	KeywordLatency time.Duration
	GraphLatency   time.Duration
	LLMLatency     time.Duration
	TotalLatency   time.Duration
}

// ringBuffer is a fixed-capacity FIFO of the most recent QueryEvents,
// adapted from the teacher's telemetry.CircularBuffer[T] for this
// package's own event type rather than importing the teacher's package
// (internal/telemetry's persistence/term-tracking machinery has no
// equivalent here — see DESIGN.md).
type ringBuffer struct {
	mu       sync.Mutex
	items    []QueryEvent
	head     int
	size     int
	capacity int
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity <= 0 {
		capacity = 200
	}
	return &ringBuffer{items: make([]QueryEvent, capacity), capacity: capacity}
}

func (b *ringBuffer) add(e QueryEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[b.head] = e
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

func (b *ringBuffer) snapshotItems() []QueryEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.size == 0 {
		return nil
	}
	result := make([]QueryEvent, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Snapshot summarizes recent query latency.
type Snapshot struct {
	QueryCount      int
	AvgTotalLatency time.Duration
	AvgVectorLatency time.Duration
	AvgKeywordLatency time.Duration
	AvgGraphLatency  time.Duration
	AvgLLMLatency    time.Duration
}

// Telemetry is a process-wide recorder of per-query stage timings
// (§12 supplemented feature).
type Telemetry struct {
	buf *ringBuffer
}

// NewTelemetry builds a Telemetry recorder retaining the most recent
// capacity query events.
func NewTelemetry(capacity int) *Telemetry {
	return &Telemetry{buf: newRingBuffer(capacity)}
}

// Record appends one query's timings.
func (t *Telemetry) Record(e QueryEvent) {
	if t == nil {
		return
	}
	t.buf.add(e)
}

// Snapshot aggregates the retained events into averages.
func (t *Telemetry) Snapshot() Snapshot {
	if t == nil {
		return Snapshot{}
	}
	events := t.buf.snapshotItems()
	if len(events) == 0 {
		return Snapshot{}
	}

	var total, vector, keyword, graph, llm time.Duration
	for _, e := range events {
		total += e.TotalLatency
		vector += e.VectorLatency
		keyword += e.KeywordLatency
		graph += e.GraphLatency
		llm += e.LLMLatency
	}
	n := time.Duration(len(events))
	return Snapshot{
		QueryCount:        len(events),
		AvgTotalLatency:   total / n,
		AvgVectorLatency:  vector / n,
		AvgKeywordLatency: keyword / n,
		AvgGraphLatency:   graph / n,
		AvgLLMLatency:     llm / n,
	}
}
