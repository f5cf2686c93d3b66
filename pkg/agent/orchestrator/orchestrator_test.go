package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/pkg/agent/extract"
	"ai-diagnostics-be/pkg/agent/format"
	"ai-diagnostics-be/pkg/agent/stream"
	"ai-diagnostics-be/pkg/agent/telemetry"
	"ai-diagnostics-be/pkg/agent/tools"
	"ai-diagnostics-be/pkg/embedding"
	"ai-diagnostics-be/pkg/llm"
	"ai-diagnostics-be/pkg/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueProvider replays completions in order. When the queue runs dry the
// last entry repeats.
type queueProvider struct {
	queue []queuedCompletion
	calls int
}

type queuedCompletion struct {
	structured string
	err        error
}

func (p *queueProvider) Complete(_ context.Context, _ string, _ []llm.Message, _ string, _ ...llm.Option) (*llm.Completion, error) {
	idx := p.calls
	if idx >= len(p.queue) {
		idx = len(p.queue) - 1
	}
	p.calls++

	entry := p.queue[idx]
	if entry.err != nil {
		return nil, entry.err
	}
	c := &llm.Completion{Text: entry.structured}
	if entry.structured != "" {
		c.Structured = json.RawMessage(entry.structured)
	}
	return c, nil
}

type fixedEmbedder struct{ values []float32 }

func (f *fixedEmbedder) Generate(_, _ string) (*embedding.Response, error) {
	return &embedding.Response{Embedding: embedding.ResponseEmbedding{Values: f.values}}, nil
}

type fixtureSources struct {
	parts    []tools.Part
	partsErr error
	sections []retrieval.Section
}

func (s *fixtureSources) All(_ context.Context) ([]tools.Part, error) {
	return s.parts, s.partsErr
}

func (s *fixtureSources) Sections(_ context.Context) ([]retrieval.Section, error) {
	return s.sections, nil
}

func (s *fixtureSources) ByIDs(_ context.Context, ids []string) ([]tools.Supplier, error) {
	suppliers := make([]tools.Supplier, 0, len(ids))
	for _, id := range ids {
		suppliers = append(suppliers, tools.Supplier{ID: id, Name: "Supplier " + id, Rating: 4.0, LeadTimeDays: 5})
	}
	return suppliers, nil
}

func (s *fixtureSources) ByPartID(_ context.Context, partID string) (*tools.RepairGuide, error) {
	return &tools.RepairGuide{ID: "g-" + partID, PartID: partID, Title: "Replacement procedure", Steps: []string{"Power down", "Replace"}}, nil
}

func (s *fixtureSources) Find(_ context.Context, _ tools.AssetCriteria) ([]tools.Asset, error) {
	return nil, nil
}

func (s *fixtureSources) ByAssetID(_ context.Context, _ string) ([]tools.WorkOrder, error) {
	return nil, nil
}

type capturedPublish struct {
	metrics []*telemetry.RequestMetrics
}

func (p *capturedPublish) DiagnosticCompleted(_ context.Context, m *telemetry.RequestMetrics) error {
	p.metrics = append(p.metrics, m)
	return nil
}

const extractionDiagnostic = `{
	"manufacturer": "Drager",
	"equipment_name": "Evita V500",
	"error_code": "E-112",
	"symptom": "oxygen flow reading stuck",
	"needs_clarification": false,
	"is_non_medical": false
}`

const narrationDiagnostic = `{
	"message": "The E-112 error indicates a failed oxygen flow sensor.",
	"likely_cause": "Degraded O2 flow sensor",
	"confidence": "high",
	"recommended_part_number": "DRG-8411"
}`

func fixture() (*fixtureSources, *telemetry.MemorySink, *capturedPublish) {
	sources := &fixtureSources{
		parts: []tools.Part{
			{
				ID:                  "p1",
				Name:                "O2 Flow Sensor",
				PartNumber:          "DRG-8411",
				Manufacturer:        "Drager",
				Description:         "Oxygen flow sensor for ventilators",
				CompatibleEquipment: []string{"Evita V500"},
				ErrorCodes:          []string{"E-112"},
				SupplierIDs:         []string{"sup1"},
			},
		},
		sections: []retrieval.Section{
			{ID: "s1", Manufacturer: "Drager", Equipment: "Evita V500", Title: "E-112 troubleshooting", Text: "Replace the O2 flow sensor.", Vector: []float32{1, 0}},
		},
	}
	return sources, telemetry.NewMemorySink(time.Hour), &capturedPublish{}
}

func newOrchestrator(
	t *testing.T,
	extractProvider, formatProvider llm.Provider,
	sources *fixtureSources,
	sink telemetry.Sink,
	publisher EventPublisher,
) *Orchestrator {
	t.Helper()

	log := logger.NewNopLogger()
	engine := retrieval.NewEngine(&fixedEmbedder{values: []float32{1, 0}}, retrieval.DefaultConfig(), log)
	executor := tools.NewExecutor(tools.Sources{
		Parts:     sources,
		Corpus:    sources,
		Suppliers: sources,
		Guides:    sources,
		Assets:    sources,
		History:   sources,
	}, engine, log)

	return New(
		extract.NewExtractor(extractProvider, log),
		executor,
		format.NewFormatter(formatProvider, log),
		sink,
		publisher,
		log,
	)
}

func TestHandleFullDiagnosticTurn(t *testing.T) {
	sources, sink, publisher := fixture()
	o := newOrchestrator(t,
		&queueProvider{queue: []queuedCompletion{{structured: extractionDiagnostic}}},
		&queueProvider{queue: []queuedCompletion{{structured: narrationDiagnostic}}},
		sources, sink, publisher,
	)

	resp := o.Handle(context.Background(), Request{RequestID: "req-1", Text: "My Drager Evita V500 shows E-112"})

	require.NotNil(t, resp)
	require.NoError(t, resp.Validate())
	assert.Equal(t, format.TypeDiagnosis, resp.Type)
	require.NotNil(t, resp.RecommendedPart)
	assert.Equal(t, "DRG-8411", resp.RecommendedPart.PartNumber)
	require.NotNil(t, resp.RepairGuide)
	require.Len(t, resp.SupplierRanking, 1)

	recent, err := sink.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	metrics := recent[0]
	assert.Equal(t, "req-1", metrics.RequestID)
	assert.False(t, metrics.Failed)
	assert.Contains(t, metrics.ToolSequence, tools.ToolSearchParts)
	assert.Contains(t, metrics.ToolSequence, tools.ToolSearchManualSections)
	assert.Contains(t, metrics.ToolSequence, tools.ToolGetSuppliers)
	assert.Contains(t, metrics.ToolSequence, tools.ToolGetRepairGuide)
	assert.Equal(t, format.TypeDiagnosis, metrics.ResponseType)

	require.Len(t, publisher.metrics, 1)
	assert.Equal(t, "req-1", publisher.metrics[0].RequestID)
}

func TestHandleNonMedicalWinsOverClarification(t *testing.T) {
	sources, sink, publisher := fixture()
	o := newOrchestrator(t,
		&queueProvider{queue: []queuedCompletion{{structured: `{"needs_clarification": true, "is_non_medical": true}`}}},
		&queueProvider{queue: []queuedCompletion{{structured: narrationDiagnostic}}},
		sources, sink, publisher,
	)

	resp := o.Handle(context.Background(), Request{Text: "What's a good pasta recipe?"})

	assert.Equal(t, format.TypeGuidance, resp.Type)

	recent, _ := sink.Recent(context.Background(), 1)
	require.Len(t, recent, 1)
	// No tools ran for an out-of-domain turn.
	assert.Zero(t, recent[0].TotalToolCalls)
}

func TestHandleClarificationOnStructuralExtractionFailure(t *testing.T) {
	sources, sink, publisher := fixture()
	o := newOrchestrator(t,
		&queueProvider{queue: []queuedCompletion{{structured: ""}}},
		&queueProvider{queue: []queuedCompletion{{structured: narrationDiagnostic}}},
		sources, sink, publisher,
	)

	resp := o.Handle(context.Background(), Request{Text: "asdfghjkl"})

	assert.Equal(t, format.TypeClarification, resp.Type)
	assert.Empty(t, resp.Confidence)
	assert.NotEmpty(t, resp.Message)

	recent, _ := sink.Recent(context.Background(), 1)
	require.Len(t, recent, 1)
	assert.False(t, recent[0].Failed)
}

func TestHandleCatalogFailureIsTerminal(t *testing.T) {
	sources, sink, publisher := fixture()
	sources.partsErr = errors.New("catalog db down")
	o := newOrchestrator(t,
		&queueProvider{queue: []queuedCompletion{{structured: extractionDiagnostic}}},
		&queueProvider{queue: []queuedCompletion{{structured: narrationDiagnostic}}},
		sources, sink, publisher,
	)

	resp := o.Handle(context.Background(), Request{RequestID: "req-fail", Text: "E-112 on my ventilator"})

	assert.NotEmpty(t, resp.Message)
	assert.NotContains(t, resp.Message, "catalog db down")

	recent, _ := sink.Recent(context.Background(), 1)
	require.Len(t, recent, 1)
	assert.True(t, recent[0].Failed)
}

func TestRetryingProviderRecoverFromRateLimit(t *testing.T) {
	inner := &queueProvider{queue: []queuedCompletion{
		{err: &llm.RateLimitError{Provider: "gemini", Detail: "quota"}},
		{err: &llm.RateLimitError{Provider: "gemini", Detail: "quota"}},
		{structured: extractionDiagnostic},
	}}
	provider := NewRetryingProvider(inner, RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})

	c, err := provider.Complete(context.Background(), "", nil, "hi")

	require.NoError(t, err)
	require.NotNil(t, c.Structured)
	assert.Equal(t, 3, inner.calls)
}

func TestRetryingProviderDoesNotRetryOtherErrors(t *testing.T) {
	inner := &queueProvider{queue: []queuedCompletion{
		{err: errors.New("bad request")},
		{structured: extractionDiagnostic},
	}}
	provider := NewRetryingProvider(inner, RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})

	_, err := provider.Complete(context.Background(), "", nil, "hi")

	require.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryingProviderExhaustsAttempts(t *testing.T) {
	inner := &queueProvider{queue: []queuedCompletion{
		{err: &llm.RateLimitError{Provider: "gemini", Detail: "quota"}},
	}}
	provider := NewRetryingProvider(inner, RetryPolicy{MaxAttempts: 2, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond})

	_, err := provider.Complete(context.Background(), "", nil, "hi")

	require.Error(t, err)
	assert.True(t, llm.IsRateLimited(err))
	assert.Equal(t, 2, inner.calls)
}

func TestHandleStreamEventOrdering(t *testing.T) {
	sources, sink, publisher := fixture()
	o := newOrchestrator(t,
		&queueProvider{queue: []queuedCompletion{{structured: extractionDiagnostic}}},
		&queueProvider{queue: []queuedCompletion{{structured: narrationDiagnostic}}},
		sources, sink, publisher,
	)

	var events []stream.Event
	resp := o.HandleStream(context.Background(), Request{Text: "E-112 on Evita V500"}, stream.SinkFunc(func(e stream.Event) error {
		events = append(events, e)
		return nil
	}))

	require.NotNil(t, resp)
	require.NotEmpty(t, events)
	assert.Equal(t, stream.KindPhaseMarker, events[0].Kind)
	assert.Equal(t, StateExtracting, events[0].Phase)
	assert.Equal(t, stream.KindComplete, events[len(events)-1].Kind)

	var phases []string
	sawToolDone, sawChunk := false, false
	for _, e := range events {
		switch e.Kind {
		case stream.KindPhaseMarker:
			phases = append(phases, e.Phase)
		case stream.KindToolDone:
			sawToolDone = true
		case stream.KindTextChunk:
			sawChunk = true
		}
	}
	assert.Equal(t, []string{StateExtracting, StateResearching, StateFormatting, StateResponding}, phases)
	assert.True(t, sawToolDone)
	assert.True(t, sawChunk)

	var final format.StructuredResponse
	require.NoError(t, json.Unmarshal(events[len(events)-1].Payload, &final))
	assert.Equal(t, resp.Type, final.Type)
}

func TestChunkTextRespectsWordBoundaries(t *testing.T) {
	chunks := chunkText("replace the oxygen flow sensor and recalibrate the ventilator", 20)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 20)
	}
	assert.Equal(t, "replace the oxygen flow sensor and recalibrate the ventilator",
		joinChunks(chunks))
}

func joinChunks(chunks []string) string {
	out := ""
	for i, c := range chunks {
		if i > 0 {
			out += " "
		}
		out += c
	}
	return out
}
