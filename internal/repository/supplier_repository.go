package repository

import (
	"context"

	"ai-diagnostics-be/internal/entity"
	"ai-diagnostics-be/pkg/agent/tools"

	"gorm.io/gorm"
)

type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) ByIDs(ctx context.Context, ids []string) ([]tools.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []entity.Supplier
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}

	suppliers := make([]tools.Supplier, 0, len(rows))
	for _, row := range rows {
		suppliers = append(suppliers, tools.Supplier{
			ID:           row.Id,
			Name:         row.Name,
			Rating:       row.Rating,
			LeadTimeDays: row.LeadTimeDays,
			Region:       row.Region,
		})
	}
	return suppliers, nil
}
