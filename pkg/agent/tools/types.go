package tools

import "time"

// PartFilters narrows the replacement-part catalog. Empty fields are
// skipped; populated fields are applied in the fixed pipeline order of
// ApplyFilters.
type PartFilters struct {
	Manufacturer  string `json:"manufacturer,omitempty"`
	EquipmentName string `json:"equipment_name,omitempty"`
	ErrorCode     string `json:"error_code,omitempty"`
	Symptom       string `json:"symptom,omitempty"`
	Category      string `json:"category,omitempty"`
}

// Part is one replacement component from the catalog.
type Part struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	PartNumber          string   `json:"part_number"`
	Manufacturer        string   `json:"manufacturer"`
	Category            string   `json:"category"`
	Description         string   `json:"description"`
	Price               float64  `json:"price"`
	SupplierIDs         []string `json:"supplier_ids"`
	CompatibleEquipment []string `json:"compatible_equipment"`
	ErrorCodes          []string `json:"error_codes"`
}

type Supplier struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Rating       float64 `json:"rating"`
	LeadTimeDays int     `json:"lead_time_days"`
	Region       string  `json:"region"`
}

type RepairGuide struct {
	ID               string   `json:"id"`
	PartID           string   `json:"part_id"`
	Title            string   `json:"title"`
	Steps            []string `json:"steps"`
	SafetyNotes      []string `json:"safety_notes"`
	EstimatedMinutes int      `json:"estimated_minutes"`
}

type Asset struct {
	ID            string    `json:"id"`
	AssetTag      string    `json:"asset_tag"`
	EquipmentName string    `json:"equipment_name"`
	Manufacturer  string    `json:"manufacturer"`
	Department    string    `json:"department"`
	Location      string    `json:"location"`
	InstalledAt   time.Time `json:"installed_at"`
}

type WorkOrder struct {
	ID          string    `json:"id"`
	AssetID     string    `json:"asset_id"`
	Description string    `json:"description"`
	Resolution  string    `json:"resolution"`
	PartUsed    string    `json:"part_used,omitempty"`
	ClosedAt    time.Time `json:"closed_at"`
}

// ManualQuery drives the manual-section lookup tool.
type ManualQuery struct {
	Manufacturer  string `json:"manufacturer,omitempty"`
	EquipmentName string `json:"equipment_name,omitempty"`
	Keyword       string `json:"keyword,omitempty"`
}

// AssetCriteria locates registered equipment either by tag or by
// department + equipment name.
type AssetCriteria struct {
	AssetTag      string `json:"asset_tag,omitempty"`
	Department    string `json:"department,omitempty"`
	EquipmentName string `json:"equipment_name,omitempty"`
}
