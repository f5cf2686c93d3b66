package entity

import (
	"time"

	"gorm.io/datatypes"
)

type RepairGuide struct {
	Id               string         `gorm:"primaryKey"`
	PartId           string         `gorm:"not null;index"`
	Title            string         `gorm:"not null"`
	Steps            datatypes.JSON `gorm:"type:jsonb"`
	SafetyNotes      datatypes.JSON `gorm:"type:jsonb"`
	EstimatedMinutes int
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (RepairGuide) TableName() string {
	return "repair_guides"
}
