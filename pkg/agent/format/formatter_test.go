package format

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/pkg/agent/tools"
	"ai-diagnostics-be/pkg/llm"
	"ai-diagnostics-be/pkg/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProvider struct {
	structured string
	err        error
}

func (p *scriptedProvider) Complete(_ context.Context, _ string, _ []llm.Message, _ string, _ ...llm.Option) (*llm.Completion, error) {
	if p.err != nil {
		return nil, p.err
	}
	c := &llm.Completion{Text: p.structured}
	if p.structured != "" {
		c.Structured = json.RawMessage(p.structured)
	}
	return c, nil
}

func formatterFixture() *ToolOutputs {
	return &ToolOutputs{
		Parts: []tools.Part{
			{
				ID:         "p1",
				Name:       "O2 Flow Sensor",
				PartNumber: "DRG-8411",
				Price:      412.50,
				ErrorCodes: []string{"E-112"},
			},
			{
				ID:         "p2",
				Name:       "Flow Sensor Cable",
				PartNumber: "DRG-8412",
				Price:      55.00,
			},
		},
		Sections: []retrieval.ScoredSection{
			{
				Section: retrieval.Section{ID: "s1", Title: "Error E-112 troubleshooting", Text: "Replace the O2 flow sensor."},
				Score:   0.91,
			},
		},
		Suppliers: []tools.Supplier{
			{ID: "sup1", Name: "MedParts EU", Rating: 4.2, LeadTimeDays: 7},
			{ID: "sup2", Name: "HospSupply", Rating: 4.8, LeadTimeDays: 12},
			{ID: "sup3", Name: "QuickMed", Rating: 4.8, LeadTimeDays: 3},
		},
		Guide: &tools.RepairGuide{ID: "g1", PartID: "p1", Title: "Sensor replacement", Steps: []string{"Power down", "Swap sensor"}, EstimatedMinutes: 25},
	}
}

func TestFormatAssemblesGroundedResponse(t *testing.T) {
	provider := &scriptedProvider{structured: `{
		"message": "The E-112 error points to a failed oxygen flow sensor.",
		"likely_cause": "Degraded O2 flow sensor",
		"confidence": "high",
		"recommended_part_number": "DRG-8411",
		"warnings": ["Recalibrate after replacement"]
	}`}
	f := NewFormatter(provider, logger.NewNopLogger())

	resp := f.Format(context.Background(), nil, formatterFixture())

	require.NotNil(t, resp)
	require.NoError(t, resp.Validate())
	assert.Equal(t, TypeDiagnosis, resp.Type)
	assert.Equal(t, ConfidenceHigh, resp.Confidence)
	require.NotNil(t, resp.RecommendedPart)
	assert.Equal(t, "DRG-8411", resp.RecommendedPart.PartNumber)
	require.NotNil(t, resp.Diagnosis)
	assert.Equal(t, "Degraded O2 flow sensor", resp.Diagnosis.LikelyCause)
	require.Len(t, resp.AlternativeParts, 1)
	assert.Equal(t, "p2", resp.AlternativeParts[0].ID)
	require.Len(t, resp.ManualReferences, 1)
	assert.Equal(t, "s1", resp.ManualReferences[0].SectionID)
	assert.Equal(t, []string{"Recalibrate after replacement"}, resp.Warnings)
}

func TestFormatDowngradesFabricatedPartNumber(t *testing.T) {
	provider := &scriptedProvider{structured: `{
		"message": "Replace the sensor.",
		"likely_cause": "Sensor failure",
		"confidence": "high",
		"recommended_part_number": "FAKE-9999"
	}`}
	f := NewFormatter(provider, logger.NewNopLogger())

	resp := f.Format(context.Background(), nil, formatterFixture())

	require.NotNil(t, resp.RecommendedPart)
	// Falls back to the top catalog candidate, never the invented number.
	assert.Equal(t, "DRG-8411", resp.RecommendedPart.PartNumber)
	assert.Equal(t, ConfidenceMedium, resp.Confidence)
}

func TestFormatFallsBackOnProviderError(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("upstream 500")}
	f := NewFormatter(provider, logger.NewNopLogger())

	resp := f.Format(context.Background(), nil, formatterFixture())

	require.NotNil(t, resp)
	require.NoError(t, resp.Validate())
	assert.Equal(t, ConfidenceMedium, resp.Confidence)
	require.NotNil(t, resp.RecommendedPart)
	assert.Equal(t, "DRG-8411", resp.RecommendedPart.PartNumber)
	assert.Contains(t, resp.Message, "DRG-8411")
}

func TestFormatFallsBackOnMissingStructuredOutput(t *testing.T) {
	f := NewFormatter(&scriptedProvider{}, logger.NewNopLogger())

	resp := f.Format(context.Background(), nil, formatterFixture())

	require.NotNil(t, resp)
	assert.Equal(t, ConfidenceMedium, resp.Confidence)
}

func TestFallbackWithoutPartsIsLowConfidence(t *testing.T) {
	f := NewFormatter(&scriptedProvider{}, logger.NewNopLogger())

	resp := f.Fallback(&ToolOutputs{}, "")

	require.NoError(t, resp.Validate())
	assert.Equal(t, ConfidenceLow, resp.Confidence)
	assert.Nil(t, resp.RecommendedPart)
	assert.NotNil(t, resp.ManualReferences)
	assert.NotNil(t, resp.AlternativeParts)
}

func TestRankSuppliersOrdering(t *testing.T) {
	ranked := rankSuppliers(formatterFixture())

	require.Len(t, ranked, 3)
	// Rating descending, lead time breaks the 4.8 tie.
	assert.Equal(t, "sup3", ranked[0].SupplierID)
	assert.Equal(t, "sup2", ranked[1].SupplierID)
	assert.Equal(t, "sup1", ranked[2].SupplierID)
}

func TestClarificationCarriesNoConfidence(t *testing.T) {
	resp := NewClarification("Which manufacturer is the ventilator?")

	require.NoError(t, resp.Validate())
	assert.Equal(t, TypeClarification, resp.Type)
	assert.Empty(t, resp.Confidence)
	assert.NotNil(t, resp.Warnings)
}
