package entity

import (
	"time"

	"gorm.io/datatypes"
)

// RequestMetric is the persisted form of one request's telemetry. The
// nested tool call records stay as a JSON document; queries only ever
// filter on the scalar columns.
type RequestMetric struct {
	Id           string `gorm:"primaryKey"`
	ResponseType string `gorm:"index"`
	Confidence   string
	Failed       bool           `gorm:"index"`
	DurationMs   int64
	ToolCalls    int
	Payload      datatypes.JSON `gorm:"type:jsonb"`
	FinishedAt   time.Time      `gorm:"index"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
}

func (RequestMetric) TableName() string {
	return "request_metrics"
}
