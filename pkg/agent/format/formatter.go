package format

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/pkg/llm"
)

// narrationSchema is what the completion service is allowed to author:
// narration and classification only. Every literal value in the final
// response is attached from tool data afterwards, which is how the
// grounding contract stays enforceable.
const narrationSchema = `{
  "type": "object",
  "properties": {
    "message": {"type": "string"},
    "likely_cause": {"type": "string"},
    "detail": {"type": "string"},
    "confidence": {"type": "string", "enum": ["high", "medium", "low"]},
    "reasoning": {"type": "string"},
    "warnings": {"type": "array", "items": {"type": "string"}},
    "recommended_part_number": {"type": "string"}
  },
  "required": ["message", "confidence"],
  "additionalProperties": false
}`

type narration struct {
	Message               string   `json:"message"`
	LikelyCause           string   `json:"likely_cause"`
	Detail                string   `json:"detail"`
	Confidence            string   `json:"confidence"`
	Reasoning             string   `json:"reasoning"`
	Warnings              []string `json:"warnings"`
	RecommendedPartNumber string   `json:"recommended_part_number"`
}

// Formatter turns aggregated tool outputs into the canonical structured
// response. It never returns nil: any model failure degrades to a
// deterministic reconstruction from raw tool data.
type Formatter struct {
	provider llm.Provider
	logger   logger.ILogger
}

func NewFormatter(provider llm.Provider, log logger.ILogger) *Formatter {
	return &Formatter{
		provider: provider,
		logger:   log,
	}
}

func (f *Formatter) Format(ctx context.Context, history []llm.Message, outputs *ToolOutputs) *StructuredResponse {
	prompt := f.buildGroundedPrompt(outputs)

	completion, err := f.provider.Complete(
		ctx,
		formatterSystemInstruction,
		history,
		prompt,
		llm.WithOutputSchema([]byte(narrationSchema)),
	)
	if err != nil {
		f.logger.Warn("format", "Completion failed, using deterministic fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return f.Fallback(outputs, "")
	}
	if completion.Structured == nil {
		f.logger.Warn("format", "Completion yielded no schema-valid object, using deterministic fallback", nil)
		return f.Fallback(outputs, "")
	}

	var n narration
	if err := json.Unmarshal(completion.Structured, &n); err != nil {
		return f.Fallback(outputs, "")
	}

	response := f.assemble(n, outputs)
	response.Normalize()
	if err := response.Validate(); err != nil {
		f.logger.Warn("format", "Assembled response violated schema, using deterministic fallback", map[string]interface{}{
			"error": err.Error(),
		})
		return f.Fallback(outputs, "")
	}
	return response
}

// assemble attaches tool data around the model's narration. A part number
// the model invented is simply not found in the whitelist and the
// recommendation falls back to the top search candidate.
func (f *Formatter) assemble(n narration, outputs *ToolOutputs) *StructuredResponse {
	response := &StructuredResponse{
		Type:       TypeDiagnosis,
		Message:    n.Message,
		Confidence: n.Confidence,
		Reasoning:  n.Reasoning,
		Warnings:   n.Warnings,
	}

	if n.LikelyCause != "" {
		response.Diagnosis = &Diagnosis{
			LikelyCause: n.LikelyCause,
			Detail:      n.Detail,
		}
	}

	recommended := outputs.TopPart()
	if n.RecommendedPartNumber != "" {
		if outputs.KnownPartNumbers()[n.RecommendedPartNumber] {
			for i := range outputs.Parts {
				if outputs.Parts[i].PartNumber == n.RecommendedPartNumber {
					recommended = &outputs.Parts[i]
					break
				}
			}
		} else {
			f.logger.Warn("format", "Model referenced a part number absent from tool data", map[string]interface{}{
				"part_number": n.RecommendedPartNumber,
			})
			response.Confidence = downgrade(response.Confidence)
		}
	}

	if recommended != nil {
		response.RecommendedPart = recommended
		if response.Diagnosis == nil {
			// Invariant: a recommended part implies a diagnosis.
			response.Diagnosis = deterministicDiagnosis(outputs)
		}
		for _, p := range outputs.Parts {
			if p.ID != recommended.ID {
				response.AlternativeParts = append(response.AlternativeParts, p)
			}
		}
	}

	response.ManualReferences = buildManualReferences(outputs)
	response.SupplierRanking = rankSuppliers(outputs)
	response.RepairGuide = outputs.Guide

	return response
}

// Fallback reconstructs a minimal valid response purely from tool data.
// Confidence never exceeds medium here, and no value appears that did not
// come from a tool result.
func (f *Formatter) Fallback(outputs *ToolOutputs, message string) *StructuredResponse {
	response := &StructuredResponse{
		Type:             TypeDiagnosis,
		Confidence:       ConfidenceMedium,
		ManualReferences: buildManualReferences(outputs),
		SupplierRanking:  rankSuppliers(outputs),
		RepairGuide:      outputs.Guide,
	}

	top := outputs.TopPart()
	if top != nil {
		response.RecommendedPart = top
		response.Diagnosis = deterministicDiagnosis(outputs)
		response.Message = fmt.Sprintf(
			"Based on the catalog search, the closest matching replacement is %s (part number %s).",
			top.Name, top.PartNumber,
		)
		for _, p := range outputs.Parts[1:] {
			response.AlternativeParts = append(response.AlternativeParts, p)
		}
	} else {
		response.Confidence = ConfidenceLow
		response.Message = "I could not narrow this down to a specific replacement part. " +
			"The manual sections below are the closest matches to the described problem."
		if len(outputs.Sections) == 0 {
			response.Message = "I could not find matching parts or manual sections for the described problem."
		}
	}

	if message != "" {
		response.Message = message
	}

	response.Normalize()
	return response
}

func deterministicDiagnosis(outputs *ToolOutputs) *Diagnosis {
	top := outputs.TopPart()
	if top == nil {
		return nil
	}
	d := &Diagnosis{
		LikelyCause: fmt.Sprintf("Suspected failure of: %s", top.Name),
	}
	if len(top.ErrorCodes) > 0 {
		d.ErrorCode = top.ErrorCodes[0]
	}
	return d
}

func buildManualReferences(outputs *ToolOutputs) []ManualReference {
	refs := make([]ManualReference, 0, len(outputs.Sections))
	for _, s := range outputs.Sections {
		quote := s.Section.Text
		if len(quote) > 280 {
			quote = quote[:280] + "..."
		}
		refs = append(refs, ManualReference{
			SectionID: s.Section.ID,
			Title:     s.Section.Title,
			Quote:     quote,
			Score:     s.Score,
		})
	}
	return refs
}

// rankSuppliers orders suppliers best-first: rating descending, lead time
// ascending on ties. Stable, so equal suppliers keep tool order.
func rankSuppliers(outputs *ToolOutputs) []RankedSupplier {
	ranked := make([]RankedSupplier, 0, len(outputs.Suppliers))
	for _, s := range outputs.Suppliers {
		ranked = append(ranked, RankedSupplier{
			SupplierID:   s.ID,
			Name:         s.Name,
			Rating:       s.Rating,
			LeadTimeDays: s.LeadTimeDays,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].LeadTimeDays < ranked[j].LeadTimeDays
	})
	return ranked
}

func downgrade(confidence string) string {
	if confidence == ConfidenceHigh {
		return ConfidenceMedium
	}
	return ConfidenceLow
}

const formatterSystemInstruction = "You are a medical equipment diagnostics assistant writing the final answer " +
	"for a technician. You compose narration ONLY around the reference material you are given. " +
	"Every part number, price, supplier name and quoted manual text must come from that material."

func (f *Formatter) buildGroundedPrompt(outputs *ToolOutputs) string {
	var prompt strings.Builder

	prompt.WriteString("<grounded_reference_material>\n")
	prompt.WriteString("CRITICAL: This is the ONLY data source. Do NOT use outside knowledge.\n\n")

	if len(outputs.Parts) > 0 {
		prompt.WriteString("--- MATCHING PARTS (best match first) ---\n")
		for i, p := range outputs.Parts {
			prompt.WriteString(fmt.Sprintf("%d. %s | part_number=%s | manufacturer=%s | price=%.2f\n   %s\n",
				i+1, p.Name, p.PartNumber, p.Manufacturer, p.Price, p.Description))
		}
	} else {
		prompt.WriteString("--- MATCHING PARTS ---\nNone found.\n")
	}

	if len(outputs.Sections) > 0 {
		prompt.WriteString("\n--- MANUAL SECTIONS ---\n")
		for _, s := range outputs.Sections {
			prompt.WriteString(fmt.Sprintf("[%s] %s (score %.2f)\n%s\n", s.Section.ID, s.Section.Title, s.Score, s.Section.Text))
		}
	}

	if len(outputs.Suppliers) > 0 {
		prompt.WriteString("\n--- SUPPLIERS ---\n")
		for _, s := range outputs.Suppliers {
			prompt.WriteString(fmt.Sprintf("%s: rating %.1f, lead time %d days\n", s.Name, s.Rating, s.LeadTimeDays))
		}
	}

	if outputs.Guide != nil {
		prompt.WriteString(fmt.Sprintf("\n--- REPAIR GUIDE: %s (%d min) ---\n", outputs.Guide.Title, outputs.Guide.EstimatedMinutes))
		for i, step := range outputs.Guide.Steps {
			prompt.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
		}
	}

	if len(outputs.History) > 0 {
		prompt.WriteString("\n--- REPAIR HISTORY FOR THIS ASSET ---\n")
		for _, w := range outputs.History {
			prompt.WriteString(fmt.Sprintf("%s: %s -> %s\n", w.ClosedAt.Format("2006-01-02"), w.Description, w.Resolution))
		}
	}

	prompt.WriteString("</grounded_reference_material>\n\n")

	prompt.WriteString("<task_instructions>\n")
	prompt.WriteString("1. Identify the most likely cause of the reported failure.\n")
	prompt.WriteString("2. Pick the best replacement part by quoting its exact part_number in recommended_part_number.\n")
	prompt.WriteString("3. Mention safety-relevant caveats as warnings.\n")
	prompt.WriteString("4. Set confidence to high only when an error code or manual section directly supports the cause.\n")
	prompt.WriteString("</task_instructions>\n")

	return prompt.String()
}
