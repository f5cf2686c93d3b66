package stream

import "encoding/json"

// Event kinds emitted while a diagnostic request is being processed.
const (
	KindPhaseMarker = "phase_marker"
	KindToolDone    = "tool_done"
	KindTextChunk   = "text_chunk"
	KindComplete    = "complete"
	KindError       = "error"
)

// Event is one progress record. Exactly one payload field is set,
// matching Kind.
type Event struct {
	Kind    string          `json:"kind"`
	Phase   string          `json:"phase,omitempty"`
	Tool    string          `json:"tool,omitempty"`
	Count   int             `json:"count,omitempty"`
	Text    string          `json:"text,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Sink receives events in emission order. Emit must not be called
// concurrently; the pipeline serializes emissions from a single goroutine.
type Sink interface {
	Emit(event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(event Event) error

func (f SinkFunc) Emit(event Event) error {
	return f(event)
}

func PhaseMarker(phase string) Event {
	return Event{Kind: KindPhaseMarker, Phase: phase}
}

func ToolDone(tool string, count int) Event {
	return Event{Kind: KindToolDone, Tool: tool, Count: count}
}

func TextChunk(text string) Event {
	return Event{Kind: KindTextChunk, Text: text}
}

func Complete(payload json.RawMessage) Event {
	return Event{Kind: KindComplete, Payload: payload}
}

func ErrorEvent(message string) Event {
	return Event{Kind: KindError, Text: message}
}
