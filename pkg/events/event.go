package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "diagnostic.completed").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent carries the common fields every concrete event needs.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const TypeDiagnosticCompleted = "diagnostic.completed"

// NewDiagnosticCompleted builds the event emitted after every diagnostic
// turn, successful or not. Consumers use it for dashboards and alerting.
func NewDiagnosticCompleted(requestID, responseType, confidence string, failed bool, durationMs int64, toolCalls int) Event {
	return BaseEvent{
		Type: TypeDiagnosticCompleted,
		Data: map[string]interface{}{
			"request_id":    requestID,
			"response_type": responseType,
			"confidence":    confidence,
			"failed":        failed,
			"duration_ms":   durationMs,
			"tool_calls":    toolCalls,
		},
		OccurredAt: time.Now(),
	}
}
