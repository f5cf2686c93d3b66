package orchestrator

import (
	"context"
	"sync"

	"ai-diagnostics-be/pkg/agent/extract"
	"ai-diagnostics-be/pkg/agent/format"
	"ai-diagnostics-be/pkg/agent/tools"
)

// research runs the tool plan for an extracted query. Only the part
// catalog search is critical; every other tool degrades to an empty
// result so a flaky side channel never sinks the whole request.
func (o *Orchestrator) research(ctx context.Context, query *extract.ExtractedQuery) (*format.ToolOutputs, error) {
	outputs := &format.ToolOutputs{}

	// Asset context first: history can sharpen the later diagnosis, and
	// a known asset pins down equipment identity for the catalog filters.
	if query.AssetTag != "" || query.Department != "" {
		assets, err := o.executor.LookupAsset(ctx, tools.AssetCriteria{
			AssetTag:      query.AssetTag,
			Department:    query.Department,
			EquipmentName: query.EquipmentName,
		})
		if err != nil {
			o.logger.Warn("orchestrator", "Asset lookup failed, continuing without asset context", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			outputs.Assets = assets
			if len(assets) == 1 {
				history, err := o.executor.GetRepairHistory(ctx, assets[0].ID)
				if err != nil {
					o.logger.Warn("orchestrator", "Repair history unavailable", map[string]interface{}{
						"asset_id": assets[0].ID,
						"error":    err.Error(),
					})
				} else {
					outputs.History = history
				}
			}
		}
	}

	filters := tools.PartFilters{
		Manufacturer:  query.Manufacturer,
		EquipmentName: query.EquipmentName,
		ErrorCode:     query.ErrorCode,
		Symptom:       query.Symptom,
	}
	if len(outputs.Assets) == 1 {
		if filters.Manufacturer == "" {
			filters.Manufacturer = outputs.Assets[0].Manufacturer
		}
		if filters.EquipmentName == "" {
			filters.EquipmentName = outputs.Assets[0].EquipmentName
		}
	}

	var (
		wg        sync.WaitGroup
		partsErr  error
		manualErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		outputs.Parts, partsErr = o.executor.SearchParts(ctx, filters)
	}()
	go func() {
		defer wg.Done()
		outputs.Sections, outputs.Trace, manualErr = o.executor.SearchManualSections(ctx, tools.ManualQuery{
			Manufacturer:  filters.Manufacturer,
			EquipmentName: filters.EquipmentName,
			Keyword:       keyword(query),
		})
	}()
	wg.Wait()

	if partsErr != nil {
		// Catalog search is the backbone of every diagnosis.
		return nil, partsErr
	}
	if manualErr != nil {
		o.logger.Warn("orchestrator", "Manual search failed, diagnosing without references", map[string]interface{}{
			"error": manualErr.Error(),
		})
		outputs.Sections = nil
		outputs.Trace = nil
	}

	if top := outputs.TopPart(); top != nil {
		o.enrichTopPart(ctx, top, outputs)
	}

	return outputs, nil
}

// enrichTopPart fetches suppliers and the repair guide for the leading
// candidate concurrently. Both are optional enrichments.
func (o *Orchestrator) enrichTopPart(ctx context.Context, top *tools.Part, outputs *format.ToolOutputs) {
	var wg sync.WaitGroup

	if len(top.SupplierIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			suppliers, err := o.executor.GetSuppliers(ctx, top.SupplierIDs)
			if err != nil {
				o.logger.Warn("orchestrator", "Supplier lookup failed", map[string]interface{}{
					"part_id": top.ID,
					"error":   err.Error(),
				})
				return
			}
			outputs.Suppliers = suppliers
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		guide, err := o.executor.GetRepairGuide(ctx, top.ID)
		if err != nil {
			o.logger.Warn("orchestrator", "Repair guide lookup failed", map[string]interface{}{
				"part_id": top.ID,
				"error":   err.Error(),
			})
			return
		}
		outputs.Guide = guide
	}()

	wg.Wait()
}

func keyword(query *extract.ExtractedQuery) string {
	if query.Symptom != "" && query.ErrorCode != "" {
		return query.ErrorCode + " " + query.Symptom
	}
	if query.Symptom != "" {
		return query.Symptom
	}
	return query.ErrorCode
}
