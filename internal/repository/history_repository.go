package repository

import (
	"context"

	"ai-diagnostics-be/internal/entity"
	"ai-diagnostics-be/pkg/agent/tools"

	"gorm.io/gorm"
)

type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) ByAssetID(ctx context.Context, assetID string) ([]tools.WorkOrder, error) {
	var rows []entity.WorkOrder
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("closed_at DESC").
		Limit(20).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	orders := make([]tools.WorkOrder, 0, len(rows))
	for _, row := range rows {
		orders = append(orders, tools.WorkOrder{
			ID:          row.Id,
			AssetID:     row.AssetId,
			Description: row.Description,
			Resolution:  row.Resolution,
			PartUsed:    row.PartUsed,
			ClosedAt:    row.ClosedAt,
		})
	}
	return orders, nil
}
