package orchestrator

import (
	"context"

	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/pkg/agent/extract"
	"ai-diagnostics-be/pkg/agent/format"
	"ai-diagnostics-be/pkg/agent/stream"
	"ai-diagnostics-be/pkg/agent/telemetry"
	"ai-diagnostics-be/pkg/agent/tools"
	"ai-diagnostics-be/pkg/llm"

	"github.com/google/uuid"
)

// Pipeline states, recorded in logs and emitted as stream phase markers.
const (
	StateExtracting         = "extracting"
	StateClarifying         = "clarifying"
	StateNonMedicalGuidance = "non_medical_guidance"
	StateResearching        = "researching"
	StateFormatting         = "formatting"
	StateResponding         = "responding"
	StateFailed             = "failed"
)

// Request is one diagnostic turn.
type Request struct {
	RequestID string
	History   []llm.Message
	Text      string
}

// EventPublisher notifies downstream consumers that a request completed.
// Publishing is best effort and never affects the response.
type EventPublisher interface {
	DiagnosticCompleted(ctx context.Context, metrics *telemetry.RequestMetrics) error
}

// Orchestrator drives one user turn through extraction, research and
// formatting. It owns the telemetry lifecycle for the request: the
// collector is created here, attached to the context, finalized exactly
// once, and persisted regardless of outcome.
type Orchestrator struct {
	extractor *extract.Extractor
	executor  *tools.Executor
	formatter *format.Formatter
	sink      telemetry.Sink
	publisher EventPublisher
	logger    logger.ILogger
}

func New(
	extractor *extract.Extractor,
	executor *tools.Executor,
	formatter *format.Formatter,
	sink telemetry.Sink,
	publisher EventPublisher,
	log logger.ILogger,
) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		executor:  executor,
		formatter: formatter,
		sink:      sink,
		publisher: publisher,
		logger:    log,
	}
}

// Handle processes one turn and always returns a schema-valid response.
// Internal failures surface as a generic failure response, never as an
// error the transport layer has to translate.
func (o *Orchestrator) Handle(ctx context.Context, request Request) *format.StructuredResponse {
	if request.RequestID == "" {
		request.RequestID = uuid.NewString()
	}

	collector := telemetry.NewCollector(request.RequestID)
	ctx = telemetry.WithCollector(ctx, collector)

	response, failed := o.run(ctx, request, nil)

	collector.SetOutcome(response.Type, response.Confidence, failed)
	o.persist(ctx, collector.Finalize())
	return response
}

func (o *Orchestrator) run(ctx context.Context, request Request, emit func(stream.Event)) (response *format.StructuredResponse, failed bool) {
	if emit == nil {
		emit = func(stream.Event) {}
	}
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestrator", "Pipeline panicked", map[string]interface{}{
				"request_id": request.RequestID,
				"panic":      r,
			})
			response = format.NewFailure()
			failed = true
		}
	}()

	o.logger.Info("orchestrator", "Turn started", map[string]interface{}{
		"request_id": request.RequestID,
		"state":      StateExtracting,
	})
	emit(stream.PhaseMarker(StateExtracting))

	query, err := o.extractor.Extract(ctx, request.History, request.Text)
	if err != nil {
		o.logger.Error("orchestrator", "Extraction failed", map[string]interface{}{
			"request_id": request.RequestID,
			"state":      StateFailed,
			"error":      err.Error(),
		})
		return format.NewFailure(), true
	}
	if query == nil {
		// Structural extraction failure: ask the user to restate rather
		// than guessing at intent.
		return format.NewClarification(extract.ClarificationFallback()), false
	}

	// Non-medical wins over clarification when both flags are set.
	if query.IsNonMedical {
		o.logger.Info("orchestrator", "Out-of-domain turn", map[string]interface{}{
			"request_id": request.RequestID,
			"state":      StateNonMedicalGuidance,
		})
		return format.NewGuidance(
			"I can help with medical equipment diagnostics, replacement parts and repair procedures. " +
				"For anything else I am the wrong assistant.",
		), false
	}
	if query.NeedsClarification {
		message := query.ClarificationMessage
		if message == "" {
			message = extract.ClarificationFallback()
		}
		o.logger.Info("orchestrator", "Clarification requested", map[string]interface{}{
			"request_id": request.RequestID,
			"state":      StateClarifying,
		})
		return format.NewClarification(message), false
	}

	o.logger.Info("orchestrator", "Research started", map[string]interface{}{
		"request_id": request.RequestID,
		"state":      StateResearching,
	})
	emit(stream.PhaseMarker(StateResearching))
	outputs, err := o.research(ctx, query)
	if err != nil {
		o.logger.Error("orchestrator", "Research failed", map[string]interface{}{
			"request_id": request.RequestID,
			"state":      StateFailed,
			"error":      err.Error(),
		})
		return format.NewFailure(), true
	}

	emit(stream.ToolDone(tools.ToolSearchParts, len(outputs.Parts)))
	emit(stream.ToolDone(tools.ToolSearchManualSections, len(outputs.Sections)))
	if outputs.Guide != nil {
		emit(stream.ToolDone(tools.ToolGetRepairGuide, 1))
	}
	if len(outputs.Suppliers) > 0 {
		emit(stream.ToolDone(tools.ToolGetSuppliers, len(outputs.Suppliers)))
	}

	o.logger.Info("orchestrator", "Formatting started", map[string]interface{}{
		"request_id": request.RequestID,
		"state":      StateFormatting,
	})
	emit(stream.PhaseMarker(StateFormatting))
	response = o.formatter.Format(ctx, request.History, outputs)

	o.logger.Info("orchestrator", "Turn complete", map[string]interface{}{
		"request_id": request.RequestID,
		"state":      StateResponding,
		"type":       response.Type,
		"confidence": response.Confidence,
	})
	return response, false
}

func (o *Orchestrator) persist(ctx context.Context, metrics *telemetry.RequestMetrics) {
	if metrics == nil {
		return
	}
	if o.sink != nil {
		if err := o.sink.Append(ctx, metrics); err != nil {
			o.logger.Warn("orchestrator", "Telemetry append failed", map[string]interface{}{
				"request_id": metrics.RequestID,
				"error":      err.Error(),
			})
		}
	}
	if o.publisher != nil {
		if err := o.publisher.DiagnosticCompleted(ctx, metrics); err != nil {
			o.logger.Warn("orchestrator", "Completion event publish failed", map[string]interface{}{
				"request_id": metrics.RequestID,
				"error":      err.Error(),
			})
		}
	}
}
