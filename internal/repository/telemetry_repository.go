package repository

import (
	"context"
	"encoding/json"

	"ai-diagnostics-be/internal/entity"
	"ai-diagnostics-be/pkg/agent/telemetry"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TelemetryRepository is the Postgres-backed telemetry sink. The full
// metrics object lands in a jsonb column; scalar columns exist for
// filtering and retention jobs.
type TelemetryRepository struct {
	db *gorm.DB
}

func NewTelemetryRepository(db *gorm.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

func (r *TelemetryRepository) Append(ctx context.Context, metrics *telemetry.RequestMetrics) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return err
	}

	row := entity.RequestMetric{
		Id:           metrics.RequestID,
		ResponseType: metrics.ResponseType,
		Confidence:   metrics.Confidence,
		Failed:       metrics.Failed,
		DurationMs:   metrics.DurationMs,
		ToolCalls:    metrics.TotalToolCalls,
		Payload:      datatypes.JSON(payload),
		FinishedAt:   metrics.FinishedAt,
	}
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *TelemetryRepository) Recent(ctx context.Context, limit int) ([]telemetry.RequestMetrics, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []entity.RequestMetric
	err := r.db.WithContext(ctx).
		Order("finished_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	batch := make([]telemetry.RequestMetrics, 0, len(rows))
	for _, row := range rows {
		var metrics telemetry.RequestMetrics
		if err := json.Unmarshal(row.Payload, &metrics); err != nil {
			continue
		}
		batch = append(batch, metrics)
	}
	return batch, nil
}
