package telemetry

// AggregateMetrics is a derived, read-only view over a batch of finalized
// request metrics.
type AggregateMetrics struct {
	TotalRequests          int            `json:"total_requests"`
	TotalToolCalls         int            `json:"total_tool_calls"`
	AvgToolCallsPerRequest float64        `json:"avg_tool_calls_per_request"`
	AvgRequestDurationMs   float64        `json:"avg_request_duration_ms"`
	FailedRequests         int            `json:"failed_requests"`
	ConfidenceDistribution map[string]int `json:"confidence_distribution"`
	ToolUsage              map[string]int `json:"tool_usage"`
	ResponseTypes          map[string]int `json:"response_types"`
}

// Aggregate tallies a batch. An empty batch yields all-zero/empty
// aggregates, never nil maps.
func Aggregate(batch []RequestMetrics) AggregateMetrics {
	agg := AggregateMetrics{
		ConfidenceDistribution: make(map[string]int),
		ToolUsage:              make(map[string]int),
		ResponseTypes:          make(map[string]int),
	}

	if len(batch) == 0 {
		return agg
	}

	var durationSum int64
	for _, m := range batch {
		agg.TotalRequests++
		agg.TotalToolCalls += m.TotalToolCalls
		durationSum += m.DurationMs
		if m.Failed {
			agg.FailedRequests++
		}
		if m.Confidence != "" {
			agg.ConfidenceDistribution[m.Confidence]++
		}
		if m.ResponseType != "" {
			agg.ResponseTypes[m.ResponseType]++
		}
		for _, tool := range m.ToolSequence {
			agg.ToolUsage[tool]++
		}
	}

	agg.AvgToolCallsPerRequest = float64(agg.TotalToolCalls) / float64(agg.TotalRequests)
	agg.AvgRequestDurationMs = float64(durationSum) / float64(agg.TotalRequests)
	return agg
}
