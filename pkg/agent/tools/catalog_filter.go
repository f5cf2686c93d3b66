package tools

import (
	"strings"

	"ai-diagnostics-be/pkg/agent/telemetry"
)

// Filter names as they appear in telemetry filter steps.
const (
	FilterManufacturer = "manufacturer"
	FilterCategory     = "category"
	FilterEquipment    = "equipment_name"
	FilterErrorCode    = "error_code"
	FilterSymptom      = "symptom"
)

// ApplyFilters runs the sequential narrowing pipeline over the part
// catalog, emitting one FilterStep per applied predicate. Steps only ever
// shrink the set, with one deliberate exception: if the symptom predicate
// would empty the result set it is SKIPPED and the pre-symptom set kept.
// Returning a near-miss list beats returning nothing when a technician
// free-types a symptom. Intentional behavior, do not "fix" this into a
// strict intersection.
func ApplyFilters(parts []Part, filters PartFilters) ([]Part, []telemetry.FilterStep) {
	result := parts
	steps := make([]telemetry.FilterStep, 0, 5)

	if filters.Manufacturer != "" {
		result = keep(result, func(p Part) bool {
			return strings.EqualFold(p.Manufacturer, filters.Manufacturer)
		})
		steps = append(steps, telemetry.FilterStep{
			FilterName:     FilterManufacturer,
			Value:          filters.Manufacturer,
			RemainingCount: len(result),
		})
	}

	if filters.Category != "" {
		result = keep(result, func(p Part) bool {
			return strings.EqualFold(p.Category, filters.Category)
		})
		steps = append(steps, telemetry.FilterStep{
			FilterName:     FilterCategory,
			Value:          filters.Category,
			RemainingCount: len(result),
		})
	}

	if filters.EquipmentName != "" {
		needle := strings.ToLower(filters.EquipmentName)
		result = keep(result, func(p Part) bool {
			for _, equipment := range p.CompatibleEquipment {
				if strings.Contains(strings.ToLower(equipment), needle) {
					return true
				}
			}
			return false
		})
		steps = append(steps, telemetry.FilterStep{
			FilterName:     FilterEquipment,
			Value:          filters.EquipmentName,
			RemainingCount: len(result),
		})
	}

	if filters.ErrorCode != "" {
		needle := strings.ToLower(filters.ErrorCode)
		result = keep(result, func(p Part) bool {
			for _, code := range p.ErrorCodes {
				if strings.Contains(strings.ToLower(code), needle) {
					return true
				}
			}
			return false
		})
		steps = append(steps, telemetry.FilterStep{
			FilterName:     FilterErrorCode,
			Value:          filters.ErrorCode,
			RemainingCount: len(result),
		})
	}

	if filters.Symptom != "" {
		needle := strings.ToLower(filters.Symptom)
		narrowed := keep(result, func(p Part) bool {
			return strings.Contains(strings.ToLower(p.Name+" "+p.Description), needle)
		})
		// Soft match: keep the pre-symptom set when the predicate empties it.
		if len(narrowed) > 0 {
			result = narrowed
		}
		steps = append(steps, telemetry.FilterStep{
			FilterName:     FilterSymptom,
			Value:          filters.Symptom,
			RemainingCount: len(result),
		})
	}

	return result, steps
}

func keep(parts []Part, predicate func(Part) bool) []Part {
	kept := make([]Part, 0, len(parts))
	for _, p := range parts {
		if predicate(p) {
			kept = append(kept, p)
		}
	}
	return kept
}
