package format

import (
	"fmt"

	"ai-diagnostics-be/pkg/agent/tools"

	"github.com/go-playground/validator/v10"
)

// Response types. photo_analysis exists for the photo intake surface; the
// text pipeline never emits it but the schema admits it.
const (
	TypeDiagnosis     = "diagnosis"
	TypeClarification = "clarification"
	TypeGuidance      = "guidance"
	TypePhotoAnalysis = "photo_analysis"
)

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// ManualReference cites one retrieved manual section backing a claim.
type ManualReference struct {
	SectionID string  `json:"section_id"`
	Title     string  `json:"title"`
	Quote     string  `json:"quote"`
	Score     float64 `json:"score"`
}

// Diagnosis is the assistant's assessment of the failure.
type Diagnosis struct {
	LikelyCause string `json:"likely_cause"`
	Detail      string `json:"detail,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
}

// RankedSupplier is one entry of the supplier ranking, ordered best first.
type RankedSupplier struct {
	SupplierID   string  `json:"supplier_id"`
	Name         string  `json:"name"`
	Rating       float64 `json:"rating"`
	LeadTimeDays int     `json:"lead_time_days"`
}

// StructuredResponse is the canonical fixed-schema output object,
// discriminated by Type. Array fields are always present (empty, never
// omitted) so callers never null-check collections.
type StructuredResponse struct {
	Type             string             `json:"type" validate:"required,oneof=diagnosis clarification guidance photo_analysis"`
	Message          string             `json:"message" validate:"required"`
	ManualReferences []ManualReference  `json:"manual_references"`
	Diagnosis        *Diagnosis         `json:"diagnosis"`
	RecommendedPart  *tools.Part        `json:"recommended_part"`
	RepairGuide      *tools.RepairGuide `json:"repair_guide"`
	SupplierRanking  []RankedSupplier   `json:"supplier_ranking"`
	AlternativeParts []tools.Part       `json:"alternative_parts"`
	Confidence       string             `json:"confidence,omitempty" validate:"omitempty,oneof=high medium low"`
	Reasoning        string             `json:"reasoning,omitempty"`
	Warnings         []string           `json:"warnings"`
}

var validate = validator.New()

// Normalize replaces nil collections with empty ones. Run before Validate
// and before serializing to callers.
func (r *StructuredResponse) Normalize() {
	if r.ManualReferences == nil {
		r.ManualReferences = []ManualReference{}
	}
	if r.SupplierRanking == nil {
		r.SupplierRanking = []RankedSupplier{}
	}
	if r.AlternativeParts == nil {
		r.AlternativeParts = []tools.Part{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}
}

// Validate enforces the response schema plus the cross-field invariants
// tags cannot express.
func (r *StructuredResponse) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}

	if r.Type != TypeClarification && r.Confidence == "" {
		return fmt.Errorf("confidence is required for %s responses", r.Type)
	}
	if r.RecommendedPart != nil && r.Diagnosis == nil {
		return fmt.Errorf("recommended part without a diagnosis")
	}
	if r.ManualReferences == nil || r.SupplierRanking == nil ||
		r.AlternativeParts == nil || r.Warnings == nil {
		return fmt.Errorf("array fields must be present, run Normalize first")
	}
	return nil
}
