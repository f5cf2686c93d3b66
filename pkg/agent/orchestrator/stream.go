package orchestrator

import (
	"context"
	"encoding/json"
	"strings"

	"ai-diagnostics-be/pkg/agent/format"
	"ai-diagnostics-be/pkg/agent/stream"
	"ai-diagnostics-be/pkg/agent/telemetry"

	"github.com/google/uuid"
)

const textChunkSize = 48

// HandleStream runs the same pipeline as Handle while emitting progress
// events to sink. All emissions happen from this goroutine, so the sink
// sees a strictly ordered sequence ending in complete or error.
func (o *Orchestrator) HandleStream(ctx context.Context, request Request, sink stream.Sink) *format.StructuredResponse {
	if request.RequestID == "" {
		request.RequestID = uuid.NewString()
	}

	collector := telemetry.NewCollector(request.RequestID)
	ctx = telemetry.WithCollector(ctx, collector)

	emit := func(event stream.Event) {
		if err := sink.Emit(event); err != nil {
			o.logger.Warn("orchestrator", "Stream emit failed", map[string]interface{}{
				"request_id": request.RequestID,
				"kind":       event.Kind,
				"error":      err.Error(),
			})
		}
	}

	response, failed := o.run(ctx, request, emit)

	if failed {
		emit(stream.ErrorEvent(response.Message))
	} else {
		emit(stream.PhaseMarker(StateResponding))
		for _, chunk := range chunkText(response.Message, textChunkSize) {
			emit(stream.TextChunk(chunk))
		}
		if payload, err := json.Marshal(response); err == nil {
			emit(stream.Complete(payload))
		} else {
			emit(stream.ErrorEvent("response serialization failed"))
		}
	}

	collector.SetOutcome(response.Type, response.Confidence, failed)
	o.persist(ctx, collector.Finalize())
	return response
}

// chunkText splits on word boundaries, keeping each chunk at or under the
// size limit except when a single word exceeds it.
func chunkText(text string, size int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(text)/size+1)
	var current strings.Builder
	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > size {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
