package memory

import (
	"context"
	"strings"
	"time"

	"ai-diagnostics-be/pkg/agent/tools"
	"ai-diagnostics-be/pkg/retrieval"
)

// Store is an in-memory implementation of every tool data source. It
// backs the simulator and integration tests, and doubles as a fallback
// when no database is configured.
type Store struct {
	PartRows     []tools.Part
	SectionRows  []retrieval.Section
	SupplierRows []tools.Supplier
	GuideRows    []tools.RepairGuide
	AssetRows    []tools.Asset
	OrderRows    []tools.WorkOrder
}

func (s *Store) All(_ context.Context) ([]tools.Part, error) {
	return s.PartRows, nil
}

func (s *Store) Sections(_ context.Context) ([]retrieval.Section, error) {
	return s.SectionRows, nil
}

func (s *Store) ByIDs(_ context.Context, ids []string) ([]tools.Supplier, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []tools.Supplier
	for _, row := range s.SupplierRows {
		if wanted[row.ID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *Store) ByPartID(_ context.Context, partID string) (*tools.RepairGuide, error) {
	for i := range s.GuideRows {
		if s.GuideRows[i].PartID == partID {
			return &s.GuideRows[i], nil
		}
	}
	return nil, nil
}

func (s *Store) Find(_ context.Context, criteria tools.AssetCriteria) ([]tools.Asset, error) {
	var out []tools.Asset
	for _, row := range s.AssetRows {
		if criteria.AssetTag != "" && !strings.EqualFold(row.AssetTag, criteria.AssetTag) {
			continue
		}
		if criteria.Department != "" && !strings.EqualFold(row.Department, criteria.Department) {
			continue
		}
		if criteria.EquipmentName != "" && !strings.Contains(strings.ToLower(row.EquipmentName), strings.ToLower(criteria.EquipmentName)) {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) ByAssetID(_ context.Context, assetID string) ([]tools.WorkOrder, error) {
	var out []tools.WorkOrder
	for _, row := range s.OrderRows {
		if row.AssetID == assetID {
			out = append(out, row)
		}
	}
	return out, nil
}

// Sources bundles the store for the tool executor.
func (s *Store) Sources() tools.Sources {
	return tools.Sources{
		Parts:     s,
		Corpus:    s,
		Suppliers: s,
		Guides:    s,
		Assets:    s,
		History:   s,
	}
}

// Seeded returns a store populated with a small ventilator and monitor
// catalog, enough to exercise every tool end to end.
func Seeded() *Store {
	installed := time.Date(2022, 3, 15, 0, 0, 0, 0, time.UTC)
	return &Store{
		PartRows: []tools.Part{
			{
				ID:                  "p1",
				Name:                "O2 Flow Sensor",
				PartNumber:          "DRG-8411",
				Manufacturer:        "Drager",
				Category:            "sensor",
				Description:         "Oxygen flow sensor for Evita series ventilators",
				Price:               412.50,
				SupplierIDs:         []string{"sup1", "sup2"},
				CompatibleEquipment: []string{"Evita V500", "Evita V800"},
				ErrorCodes:          []string{"E-112", "E-113"},
			},
			{
				ID:                  "p2",
				Name:                "Flow Sensor Cable",
				PartNumber:          "DRG-8412",
				Manufacturer:        "Drager",
				Category:            "cable",
				Description:         "Replacement cable for O2 flow sensor assembly",
				Price:               55.00,
				SupplierIDs:         []string{"sup1"},
				CompatibleEquipment: []string{"Evita V500"},
			},
			{
				ID:                  "p3",
				Name:                "SpO2 Finger Probe",
				PartNumber:          "GE-2200",
				Manufacturer:        "GE Healthcare",
				Category:            "sensor",
				Description:         "Reusable SpO2 probe for patient monitors",
				Price:               189.00,
				SupplierIDs:         []string{"sup3"},
				CompatibleEquipment: []string{"CARESCAPE B650"},
				ErrorCodes:          []string{"SPO2-LOW"},
			},
		},
		SectionRows: []retrieval.Section{
			{
				ID:           "s1",
				Manufacturer: "Drager",
				Equipment:    "Evita V500",
				Title:        "Error E-112: oxygen flow measurement",
				Text:         "Error E-112 indicates an implausible oxygen flow reading. Replace the O2 flow sensor and recalibrate.",
			},
			{
				ID:           "s2",
				Manufacturer: "Drager",
				Equipment:    "Evita V500",
				Title:        "Flow sensor calibration",
				Text:         "After replacing the flow sensor, run the full calibration cycle from the service menu.",
			},
			{
				ID:           "s3",
				Manufacturer: "GE Healthcare",
				Equipment:    "CARESCAPE B650",
				Title:        "SpO2 probe troubleshooting",
				Text:         "Persistent SPO2-LOW alarms with a good waveform usually indicate probe wear.",
			},
		},
		SupplierRows: []tools.Supplier{
			{ID: "sup1", Name: "MedParts EU", Rating: 4.2, LeadTimeDays: 7, Region: "EU"},
			{ID: "sup2", Name: "HospSupply", Rating: 4.8, LeadTimeDays: 12, Region: "US"},
			{ID: "sup3", Name: "QuickMed", Rating: 4.5, LeadTimeDays: 3, Region: "EU"},
		},
		GuideRows: []tools.RepairGuide{
			{
				ID:               "g1",
				PartID:           "p1",
				Title:            "O2 flow sensor replacement",
				Steps:            []string{"Power down the ventilator", "Remove the expiratory valve cover", "Swap the sensor", "Run calibration"},
				SafetyNotes:      []string{"Never hot-swap the sensor with a patient connected"},
				EstimatedMinutes: 25,
			},
		},
		AssetRows: []tools.Asset{
			{
				ID:            "a1",
				AssetTag:      "ICU-0042",
				EquipmentName: "Evita V500",
				Manufacturer:  "Drager",
				Department:    "ICU",
				Location:      "Room 12",
				InstalledAt:   installed,
			},
		},
		OrderRows: []tools.WorkOrder{
			{
				ID:          "w1",
				AssetID:     "a1",
				Description: "E-112 alarm during night shift",
				Resolution:  "Replaced O2 flow sensor",
				PartUsed:    "DRG-8411",
				ClosedAt:    time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			},
		},
	}
}
