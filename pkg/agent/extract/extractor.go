package extract

import (
	"context"
	"encoding/json"
	"strings"

	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/pkg/llm"
)

// ExtractedQuery is the structured interpretation of one user turn. All
// string fields are optional; empty string means truly absent after
// sentinel normalization.
type ExtractedQuery struct {
	Manufacturer         string `json:"manufacturer,omitempty"`
	EquipmentName        string `json:"equipment_name,omitempty"`
	ErrorCode            string `json:"error_code,omitempty"`
	Symptom              string `json:"symptom,omitempty"`
	AssetTag             string `json:"asset_tag,omitempty"`
	Department           string `json:"department,omitempty"`
	NeedsClarification   bool   `json:"needs_clarification"`
	ClarificationMessage string `json:"clarification_message,omitempty"`
	IsNonMedical         bool   `json:"is_non_medical"`
}

// Extractor converts a free-text user turn into an ExtractedQuery through
// a single schema-validated completion call.
type Extractor struct {
	provider llm.Provider
	logger   logger.ILogger
}

func NewExtractor(provider llm.Provider, log logger.ILogger) *Extractor {
	return &Extractor{
		provider: provider,
		logger:   log,
	}
}

// Extract returns nil (with nil error) only when the completion service
// failed to produce a parseable structured object. That is a structural
// failure, distinct from a valid all-absent extraction and from transport
// errors.
// Callers must treat nil as an immediate clarification, never retry it.
func (e *Extractor) Extract(ctx context.Context, history []llm.Message, currentTurn string) (*ExtractedQuery, error) {
	prompt := composePrompt(currentTurn)

	completion, err := e.provider.Complete(
		ctx,
		systemInstruction,
		history,
		prompt,
		llm.WithOutputSchema([]byte(outputSchema)),
		llm.WithTemperature(0),
	)
	if err != nil {
		return nil, err
	}

	if completion.Structured == nil {
		e.logger.Warn("extract", "Completion produced no parseable structured output", map[string]interface{}{
			"raw_length": len(completion.Text),
		})
		return nil, nil
	}

	var query ExtractedQuery
	if err := json.Unmarshal(completion.Structured, &query); err != nil {
		// Schema-validated output that still fails to unmarshal is the
		// same structural failure as no output at all.
		e.logger.Warn("extract", "Structured output did not unmarshal", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}

	normalize(&query)

	e.logger.Debug("extract", "Query extracted", map[string]interface{}{
		"manufacturer":        query.Manufacturer,
		"equipment":           query.EquipmentName,
		"error_code":          query.ErrorCode,
		"needs_clarification": query.NeedsClarification,
		"is_non_medical":      query.IsNonMedical,
	})

	return &query, nil
}

// Completion models emit "null", "none" or "N/A" as literal strings for
// absent fields. Normalize those sentinels to true absence before anything
// downstream filters on them.
func normalize(query *ExtractedQuery) {
	query.Manufacturer = stripSentinel(query.Manufacturer)
	query.EquipmentName = stripSentinel(query.EquipmentName)
	query.ErrorCode = stripSentinel(query.ErrorCode)
	query.Symptom = stripSentinel(query.Symptom)
	query.AssetTag = stripSentinel(query.AssetTag)
	query.Department = stripSentinel(query.Department)
	query.ClarificationMessage = stripSentinel(query.ClarificationMessage)
}

func stripSentinel(value string) string {
	trimmed := strings.TrimSpace(value)
	switch strings.ToLower(trimmed) {
	case "null", "none", "n/a":
		return ""
	}
	return trimmed
}
