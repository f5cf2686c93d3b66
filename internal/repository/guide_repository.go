package repository

import (
	"context"
	"errors"

	"ai-diagnostics-be/internal/entity"
	"ai-diagnostics-be/pkg/agent/tools"

	"gorm.io/gorm"
)

type GuideRepository struct {
	db *gorm.DB
}

func NewGuideRepository(db *gorm.DB) *GuideRepository {
	return &GuideRepository{db: db}
}

func (r *GuideRepository) ByPartID(ctx context.Context, partID string) (*tools.RepairGuide, error) {
	var row entity.RepairGuide
	err := r.db.WithContext(ctx).Where("part_id = ?", partID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &tools.RepairGuide{
		ID:               row.Id,
		PartID:           row.PartId,
		Title:            row.Title,
		Steps:            decodeStrings(row.Steps),
		SafetyNotes:      decodeStrings(row.SafetyNotes),
		EstimatedMinutes: row.EstimatedMinutes,
	}, nil
}
