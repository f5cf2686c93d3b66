package repository

import (
	"context"

	"ai-diagnostics-be/internal/entity"
	"ai-diagnostics-be/pkg/agent/tools"

	"gorm.io/gorm"
)

type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) Find(ctx context.Context, criteria tools.AssetCriteria) ([]tools.Asset, error) {
	query := r.db.WithContext(ctx).Model(&entity.Asset{})
	if criteria.AssetTag != "" {
		query = query.Where("asset_tag = ?", criteria.AssetTag)
	}
	if criteria.Department != "" {
		query = query.Where("department ILIKE ?", criteria.Department)
	}
	if criteria.EquipmentName != "" {
		query = query.Where("equipment_name ILIKE ?", "%"+criteria.EquipmentName+"%")
	}

	var rows []entity.Asset
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	assets := make([]tools.Asset, 0, len(rows))
	for _, row := range rows {
		assets = append(assets, tools.Asset{
			ID:            row.Id,
			AssetTag:      row.AssetTag,
			EquipmentName: row.EquipmentName,
			Manufacturer:  row.Manufacturer,
			Department:    row.Department,
			Location:      row.Location,
			InstalledAt:   row.InstalledAt,
		})
	}
	return assets, nil
}
