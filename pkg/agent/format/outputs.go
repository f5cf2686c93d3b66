package format

import (
	"ai-diagnostics-be/pkg/agent/tools"
	"ai-diagnostics-be/pkg/retrieval"
)

// ToolOutputs aggregates everything the research phase gathered. It is
// the ONLY data source the formatting stage may draw literal values from.
type ToolOutputs struct {
	Parts     []tools.Part
	Sections  []retrieval.ScoredSection
	Trace     *retrieval.Trace
	Suppliers []tools.Supplier
	Guide     *tools.RepairGuide
	Assets    []tools.Asset
	History   []tools.WorkOrder
}

// TopPart returns the leading part-search candidate, if any.
func (o *ToolOutputs) TopPart() *tools.Part {
	if len(o.Parts) == 0 {
		return nil
	}
	return &o.Parts[0]
}

// KnownPartNumbers is the grounding whitelist for part numbers.
func (o *ToolOutputs) KnownPartNumbers() map[string]bool {
	known := make(map[string]bool, len(o.Parts))
	for _, p := range o.Parts {
		known[p.PartNumber] = true
	}
	return known
}
