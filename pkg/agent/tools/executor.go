package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/pkg/agent/telemetry"
	"ai-diagnostics-be/pkg/retrieval"
)

// Tool names as recorded in telemetry and as exposed by contracts.
const (
	ToolSearchParts          = "searchParts"
	ToolSearchManualSections = "searchManualSections"
	ToolGetSuppliers         = "getSuppliers"
	ToolGetRepairGuide       = "getRepairGuide"
	ToolLookupAsset          = "lookupAsset"
	ToolGetRepairHistory     = "getRepairHistory"
)

// Data sources consumed by the executor. Implementations are external
// collaborators (gorm repositories in production, fixtures in tests).
type (
	PartSource interface {
		All(ctx context.Context) ([]Part, error)
	}
	CorpusProvider interface {
		Sections(ctx context.Context) ([]retrieval.Section, error)
	}
	SupplierSource interface {
		ByIDs(ctx context.Context, ids []string) ([]Supplier, error)
	}
	GuideSource interface {
		ByPartID(ctx context.Context, partID string) (*RepairGuide, error)
	}
	AssetSource interface {
		Find(ctx context.Context, criteria AssetCriteria) ([]Asset, error)
	}
	HistorySource interface {
		ByAssetID(ctx context.Context, assetID string) ([]WorkOrder, error)
	}
)

// Sources bundles every collaborator the executor fans out to.
type Sources struct {
	Parts     PartSource
	Corpus    CorpusProvider
	Suppliers SupplierSource
	Guides    GuideSource
	Assets    AssetSource
	History   HistorySource
}

// Executor is the typed, instrumented tool execution layer. Every call is
// timed and appended to the collector attached to the request context.
type Executor struct {
	sources Sources
	engine  *retrieval.Engine
	logger  logger.ILogger
}

func NewExecutor(sources Sources, engine *retrieval.Engine, log logger.ILogger) *Executor {
	return &Executor{
		sources: sources,
		engine:  engine,
		logger:  log,
	}
}

func (e *Executor) SearchParts(ctx context.Context, filters PartFilters) ([]Part, error) {
	start := time.Now()

	catalog, err := e.sources.Parts.All(ctx)
	if err != nil {
		e.record(ctx, ToolSearchParts, echo(filters), 0, start, nil, nil)
		return nil, fmt.Errorf("part catalog unavailable: %w", err)
	}

	result, steps := ApplyFilters(catalog, filters)
	e.record(ctx, ToolSearchParts, echo(filters), len(result), start, steps, nil)
	return result, nil
}

func (e *Executor) SearchManualSections(ctx context.Context, query ManualQuery) ([]retrieval.ScoredSection, *retrieval.Trace, error) {
	start := time.Now()

	corpus, err := e.sources.Corpus.Sections(ctx)
	if err != nil {
		e.record(ctx, ToolSearchManualSections, echo(query), 0, start, nil, nil)
		return nil, nil, fmt.Errorf("manual corpus unavailable: %w", err)
	}

	sections, trace := e.engine.Search(
		buildQueryText(query),
		retrieval.MetadataFilter{
			Manufacturer: query.Manufacturer,
			Equipment:    query.EquipmentName,
		},
		corpus,
	)
	e.record(ctx, ToolSearchManualSections, echo(query), len(sections), start, nil, trace)
	return sections, trace, nil
}

func (e *Executor) GetSuppliers(ctx context.Context, ids []string) ([]Supplier, error) {
	start := time.Now()

	suppliers, err := e.sources.Suppliers.ByIDs(ctx, ids)
	if err != nil {
		e.record(ctx, ToolGetSuppliers, strings.Join(ids, ","), 0, start, nil, nil)
		return nil, err
	}
	e.record(ctx, ToolGetSuppliers, strings.Join(ids, ","), len(suppliers), start, nil, nil)
	return suppliers, nil
}

func (e *Executor) GetRepairGuide(ctx context.Context, partID string) (*RepairGuide, error) {
	start := time.Now()

	guide, err := e.sources.Guides.ByPartID(ctx, partID)
	if err != nil {
		e.record(ctx, ToolGetRepairGuide, partID, 0, start, nil, nil)
		return nil, err
	}

	count := 0
	if guide != nil {
		count = 1
	}
	e.record(ctx, ToolGetRepairGuide, partID, count, start, nil, nil)
	return guide, nil
}

func (e *Executor) LookupAsset(ctx context.Context, criteria AssetCriteria) ([]Asset, error) {
	start := time.Now()

	assets, err := e.sources.Assets.Find(ctx, criteria)
	if err != nil {
		e.record(ctx, ToolLookupAsset, echo(criteria), 0, start, nil, nil)
		return nil, err
	}
	e.record(ctx, ToolLookupAsset, echo(criteria), len(assets), start, nil, nil)
	return assets, nil
}

func (e *Executor) GetRepairHistory(ctx context.Context, assetID string) ([]WorkOrder, error) {
	start := time.Now()

	orders, err := e.sources.History.ByAssetID(ctx, assetID)
	if err != nil {
		e.record(ctx, ToolGetRepairHistory, assetID, 0, start, nil, nil)
		return nil, err
	}
	e.record(ctx, ToolGetRepairHistory, assetID, len(orders), start, nil, nil)
	return orders, nil
}

func (e *Executor) record(
	ctx context.Context,
	toolName, inputEcho string,
	resultCount int,
	start time.Time,
	steps []telemetry.FilterStep,
	trace *retrieval.Trace,
) {
	latency := time.Since(start).Milliseconds()

	e.logger.Debug("tools", "Tool call completed", map[string]interface{}{
		"tool":       toolName,
		"results":    resultCount,
		"latency_ms": latency,
	})

	collector, ok := telemetry.FromContext(ctx)
	if !ok {
		return
	}
	collector.RecordToolCall(telemetry.ToolCallRecord{
		ToolName:       toolName,
		InputEcho:      inputEcho,
		ResultCount:    resultCount,
		LatencyMs:      latency,
		Timestamp:      start,
		FilterSteps:    steps,
		RetrievalTrace: trace,
	})
}

func buildQueryText(query ManualQuery) string {
	parts := make([]string, 0, 3)
	if query.Keyword != "" {
		parts = append(parts, query.Keyword)
	}
	if query.EquipmentName != "" {
		parts = append(parts, query.EquipmentName)
	}
	return strings.Join(parts, " ")
}

func echo(input interface{}) string {
	data, err := json.Marshal(input)
	if err != nil {
		return fmt.Sprintf("%+v", input)
	}
	return string(data)
}
