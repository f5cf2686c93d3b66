package repository

import (
	"context"
	"encoding/json"

	"ai-diagnostics-be/internal/entity"
	"ai-diagnostics-be/pkg/agent/tools"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PartRepository backs the part catalog tool with Postgres.
type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

func (r *PartRepository) All(ctx context.Context) ([]tools.Part, error) {
	var rows []entity.Part
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}

	parts := make([]tools.Part, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, tools.Part{
			ID:                  row.Id,
			Name:                row.Name,
			PartNumber:          row.PartNumber,
			Manufacturer:        row.Manufacturer,
			Category:            row.Category,
			Description:         row.Description,
			Price:               row.Price,
			SupplierIDs:         decodeStrings(row.SupplierIds),
			CompatibleEquipment: decodeStrings(row.CompatibleEquipment),
			ErrorCodes:          decodeStrings(row.ErrorCodes),
		})
	}
	return parts, nil
}

func decodeStrings(doc datatypes.JSON) []string {
	if len(doc) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(doc, &values); err != nil {
		return nil
	}
	return values
}

func encodeStrings(values []string) datatypes.JSON {
	if len(values) == 0 {
		return datatypes.JSON("[]")
	}
	doc, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(doc)
}
