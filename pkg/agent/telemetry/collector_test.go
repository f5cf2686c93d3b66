package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestCollectorAveragesAndSequence(t *testing.T) {
	c := NewCollector("req-1")
	c.RecordToolCall(ToolCallRecord{ToolName: "searchParts", LatencyMs: 10})
	c.RecordToolCall(ToolCallRecord{ToolName: "searchManualSections", LatencyMs: 30})
	c.RecordToolCall(ToolCallRecord{ToolName: "getSuppliers", LatencyMs: 20})

	m := c.Finalize()

	if m.TotalToolCalls != 3 {
		t.Errorf("TotalToolCalls = %d, want 3", m.TotalToolCalls)
	}
	if m.AvgToolLatencyMs != 20 {
		t.Errorf("AvgToolLatencyMs = %f, want 20", m.AvgToolLatencyMs)
	}

	wantSeq := []string{"searchParts", "searchManualSections", "getSuppliers"}
	if len(m.ToolSequence) != len(wantSeq) {
		t.Fatalf("ToolSequence length = %d, want %d", len(m.ToolSequence), len(wantSeq))
	}
	for i, tool := range wantSeq {
		if m.ToolSequence[i] != tool {
			t.Errorf("ToolSequence[%d] = %q, want %q", i, m.ToolSequence[i], tool)
		}
	}
}

func TestCollectorZeroCalls(t *testing.T) {
	c := NewCollector("req-empty")
	m := c.Finalize()

	if m.TotalToolCalls != 0 {
		t.Errorf("TotalToolCalls = %d, want 0", m.TotalToolCalls)
	}
	if m.AvgToolLatencyMs != 0 {
		t.Errorf("AvgToolLatencyMs = %f, want 0 when no calls recorded", m.AvgToolLatencyMs)
	}
	if m.ToolSequence == nil {
		t.Error("ToolSequence should be empty, not nil")
	}
}

func TestCollectorFinalizeOnce(t *testing.T) {
	c := NewCollector("req-2")
	c.RecordToolCall(ToolCallRecord{ToolName: "lookupAsset", LatencyMs: 5})

	first := c.Finalize()

	// Mutations after finalize must not take.
	c.RecordToolCall(ToolCallRecord{ToolName: "searchParts", LatencyMs: 50})
	c.SetOutcome("diagnosis", "high", false)
	second := c.Finalize()

	if first != second {
		t.Error("Finalize should return the same record on repeated calls")
	}
	if second.TotalToolCalls != 1 {
		t.Errorf("TotalToolCalls = %d, want 1 (post-finalize record must be dropped)", second.TotalToolCalls)
	}
	if second.ResponseType != "" {
		t.Errorf("ResponseType = %q, want empty (outcome set after finalize)", second.ResponseType)
	}
}

func TestCollectorConcurrentRecording(t *testing.T) {
	c := NewCollector("req-3")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordToolCall(ToolCallRecord{ToolName: "searchManualSections", LatencyMs: 1})
		}()
	}
	wg.Wait()

	if m := c.Finalize(); m.TotalToolCalls != 20 {
		t.Errorf("TotalToolCalls = %d, want 20", m.TotalToolCalls)
	}
}

func TestContextAttachDetach(t *testing.T) {
	base := context.Background()
	if _, ok := FromContext(base); ok {
		t.Fatal("bare context should carry no collector")
	}

	c := NewCollector("req-4")
	ctx := WithCollector(base, c)

	got, ok := FromContext(ctx)
	if !ok || got != c {
		t.Error("FromContext should return the attached collector")
	}

	// Two requests, two contexts, no bleed-through.
	other := NewCollector("req-5")
	otherCtx := WithCollector(base, other)
	if got, _ := FromContext(otherCtx); got == c {
		t.Error("collectors must not leak across request contexts")
	}
}

func TestAggregate(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		agg := Aggregate(nil)
		if agg.TotalRequests != 0 || agg.TotalToolCalls != 0 {
			t.Errorf("empty batch should yield zero totals, got %+v", agg)
		}
		if agg.ConfidenceDistribution == nil || agg.ToolUsage == nil || agg.ResponseTypes == nil {
			t.Error("aggregate maps should be empty, not nil")
		}
	})

	t.Run("exact tallies", func(t *testing.T) {
		batch := []RequestMetrics{
			{
				RequestID:      "a",
				TotalToolCalls: 2,
				ToolSequence:   []string{"searchParts", "getSuppliers"},
				ResponseType:   "diagnosis",
				Confidence:     "high",
				DurationMs:     100,
			},
			{
				RequestID:      "b",
				TotalToolCalls: 1,
				ToolSequence:   []string{"searchParts"},
				ResponseType:   "clarification",
				DurationMs:     50,
			},
			{
				RequestID:      "c",
				TotalToolCalls: 3,
				ToolSequence:   []string{"searchParts", "searchManualSections", "getRepairGuide"},
				ResponseType:   "diagnosis",
				Confidence:     "medium",
				DurationMs:     150,
				Failed:         false,
			},
		}

		agg := Aggregate(batch)

		if agg.TotalRequests != 3 || agg.TotalToolCalls != 6 {
			t.Errorf("totals = %d requests / %d calls, want 3 / 6", agg.TotalRequests, agg.TotalToolCalls)
		}
		if agg.AvgToolCallsPerRequest != 2 {
			t.Errorf("AvgToolCallsPerRequest = %f, want 2", agg.AvgToolCallsPerRequest)
		}
		if agg.AvgRequestDurationMs != 100 {
			t.Errorf("AvgRequestDurationMs = %f, want 100", agg.AvgRequestDurationMs)
		}
		if agg.ConfidenceDistribution["high"] != 1 || agg.ConfidenceDistribution["medium"] != 1 {
			t.Errorf("confidence distribution wrong: %+v", agg.ConfidenceDistribution)
		}
		if agg.ToolUsage["searchParts"] != 3 || agg.ToolUsage["getSuppliers"] != 1 {
			t.Errorf("tool usage wrong: %+v", agg.ToolUsage)
		}
		if agg.ResponseTypes["diagnosis"] != 2 {
			t.Errorf("response type tally wrong: %+v", agg.ResponseTypes)
		}
	})
}

func TestMemorySinkRecency(t *testing.T) {
	sink := NewMemorySink(time.Minute)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		if err := sink.Append(ctx, &RequestMetrics{RequestID: id}); err != nil {
			t.Fatalf("Append(%s) failed: %v", id, err)
		}
	}

	recent, err := sink.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(recent))
	}
	if recent[0].RequestID != "third" || recent[1].RequestID != "second" {
		t.Errorf("Recent order wrong: %s, %s", recent[0].RequestID, recent[1].RequestID)
	}
}
