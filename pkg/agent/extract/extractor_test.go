package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/pkg/llm"
)

// scriptedProvider returns a canned completion, or an error.
type scriptedProvider struct {
	structured string
	err        error
}

func (p *scriptedProvider) Complete(ctx context.Context, system string, history []llm.Message, prompt string, options ...llm.Option) (*llm.Completion, error) {
	if p.err != nil {
		return nil, p.err
	}
	c := &llm.Completion{Text: p.structured}
	if p.structured != "" {
		c.Structured = json.RawMessage(p.structured)
	}
	return c, nil
}

func TestExtractParsesFields(t *testing.T) {
	provider := &scriptedProvider{structured: `{
		"manufacturer": "Drager",
		"equipment_name": "Evita V500",
		"error_code": "E-112",
		"symptom": "flow sensor alarm keeps firing",
		"needs_clarification": false,
		"is_non_medical": false
	}`}
	extractor := NewExtractor(provider, logger.NewNopLogger())

	query, err := extractor.Extract(context.Background(), nil, "our Evita V500 keeps alarming E-112")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if query == nil {
		t.Fatal("Extract returned nil for a valid structured output")
	}
	if query.Manufacturer != "Drager" || query.ErrorCode != "E-112" {
		t.Errorf("fields not extracted: %+v", query)
	}
}

func TestExtractNormalizesSentinels(t *testing.T) {
	tests := []struct {
		name     string
		sentinel string
	}{
		{"literal null", "null"},
		{"literal none", "none"},
		{"not applicable", "N/A"},
		{"mixed case", "None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &scriptedProvider{structured: `{
				"manufacturer": "` + tt.sentinel + `",
				"needs_clarification": false,
				"is_non_medical": false
			}`}
			extractor := NewExtractor(provider, logger.NewNopLogger())

			query, err := extractor.Extract(context.Background(), nil, "something broke")
			if err != nil {
				t.Fatalf("Extract failed: %v", err)
			}
			if query.Manufacturer != "" {
				t.Errorf("sentinel %q not normalized to absence, got %q", tt.sentinel, query.Manufacturer)
			}
		})
	}
}

func TestExtractStructuralFailureReturnsNil(t *testing.T) {
	// Provider produced text but no schema-valid object: structural
	// failure, nil result, nil error.
	provider := &scriptedProvider{structured: ""}
	extractor := NewExtractor(provider, logger.NewNopLogger())

	query, err := extractor.Extract(context.Background(), nil, "help")
	if err != nil {
		t.Fatalf("structural failure must not surface as error, got %v", err)
	}
	if query != nil {
		t.Errorf("expected nil query, got %+v", query)
	}
}

func TestExtractTransportErrorPropagates(t *testing.T) {
	provider := &scriptedProvider{err: &llm.RateLimitError{Provider: "gemini", Detail: "quota"}}
	extractor := NewExtractor(provider, logger.NewNopLogger())

	_, err := extractor.Extract(context.Background(), nil, "help")
	if err == nil {
		t.Fatal("transport error should propagate for the caller's retry policy")
	}
	if !llm.IsRateLimited(err) {
		t.Errorf("rate-limit error lost its type: %v", err)
	}
}

func TestExtractAllAbsentIsValid(t *testing.T) {
	provider := &scriptedProvider{structured: `{"needs_clarification": true, "clarification_message": "Which device is this about?", "is_non_medical": false}`}
	extractor := NewExtractor(provider, logger.NewNopLogger())

	query, err := extractor.Extract(context.Background(), nil, "it is broken")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if query == nil {
		t.Fatal("all-absent extraction is a valid outcome, not a structural failure")
	}
	if !query.NeedsClarification {
		t.Error("needs_clarification lost")
	}
	if errors.Is(err, context.Canceled) {
		t.Error("unexpected context error")
	}
}
