package telemetry

import (
	"sync"
	"time"

	"ai-diagnostics-be/pkg/retrieval"
)

// FilterStep is one narrowing predicate applied during a catalog search.
// remaining_count never grows from one step to the next.
type FilterStep struct {
	FilterName     string `json:"filter_name"`
	Value          string `json:"value"`
	RemainingCount int    `json:"remaining_count"`
}

// ToolCallRecord captures a single instrumented tool invocation. Records
// are append-only; order equals invocation order.
type ToolCallRecord struct {
	ToolName       string           `json:"tool_name"`
	InputEcho      string           `json:"input_echo"`
	ResultCount    int              `json:"result_count"`
	LatencyMs      int64            `json:"latency_ms"`
	Timestamp      time.Time        `json:"timestamp"`
	FilterSteps    []FilterStep     `json:"filter_steps,omitempty"`
	RetrievalTrace *retrieval.Trace `json:"retrieval_trace,omitempty"`
}

// RequestMetrics is the finalized, immutable record of one request.
type RequestMetrics struct {
	RequestID        string           `json:"request_id"`
	StartedAt        time.Time        `json:"started_at"`
	FinishedAt       time.Time        `json:"finished_at"`
	DurationMs       int64            `json:"duration_ms"`
	TotalToolCalls   int              `json:"total_tool_calls"`
	AvgToolLatencyMs float64          `json:"avg_tool_latency_ms"`
	ToolSequence     []string         `json:"tool_sequence"`
	ToolCalls        []ToolCallRecord `json:"tool_calls"`
	ResponseType     string           `json:"response_type"`
	Confidence       string           `json:"confidence,omitempty"`
	Failed           bool             `json:"failed"`
}

// Collector accumulates instrumentation for exactly one request. It is
// created at request start, attached to the request context, mutated only
// through RecordToolCall/SetOutcome, and finalized exactly once. It must
// never be shared across concurrent requests.
type Collector struct {
	mu           sync.Mutex
	requestID    string
	startedAt    time.Time
	records      []ToolCallRecord
	responseType string
	confidence   string
	failed       bool
	finalized    *RequestMetrics
}

func NewCollector(requestID string) *Collector {
	return &Collector{
		requestID: requestID,
		startedAt: time.Now(),
	}
}

// RecordToolCall appends one record. Safe for concurrent use: fan-out tool
// groups record from multiple goroutines.
func (c *Collector) RecordToolCall(record ToolCallRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finalized != nil {
		return
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	c.records = append(c.records, record)
}

// SetOutcome stamps the response classification onto the eventual metrics.
func (c *Collector) SetOutcome(responseType, confidence string, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.finalized != nil {
		return
	}
	c.responseType = responseType
	c.confidence = confidence
	c.failed = failed
}

// Finalize builds the immutable RequestMetrics. Calling it again returns
// the same record.
func (c *Collector) Finalize() *RequestMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finalized != nil {
		return c.finalized
	}

	finishedAt := time.Now()
	sequence := make([]string, 0, len(c.records))
	var latencySum int64
	for _, r := range c.records {
		sequence = append(sequence, r.ToolName)
		latencySum += r.LatencyMs
	}

	avgLatency := 0.0
	if len(c.records) > 0 {
		avgLatency = float64(latencySum) / float64(len(c.records))
	}

	calls := make([]ToolCallRecord, len(c.records))
	copy(calls, c.records)

	c.finalized = &RequestMetrics{
		RequestID:        c.requestID,
		StartedAt:        c.startedAt,
		FinishedAt:       finishedAt,
		DurationMs:       finishedAt.Sub(c.startedAt).Milliseconds(),
		TotalToolCalls:   len(calls),
		AvgToolLatencyMs: avgLatency,
		ToolSequence:     sequence,
		ToolCalls:        calls,
		ResponseType:     c.responseType,
		Confidence:       c.confidence,
		Failed:           c.failed,
	}
	return c.finalized
}
