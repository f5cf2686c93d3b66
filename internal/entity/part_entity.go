package entity

import (
	"time"

	"gorm.io/datatypes"
)

type Part struct {
	Id                  string         `gorm:"primaryKey"`
	Name                string         `gorm:"not null;index"`
	PartNumber          string         `gorm:"uniqueIndex;not null"`
	Manufacturer        string         `gorm:"index"`
	Category            string         `gorm:"index"`
	Description         string         `gorm:"type:text"`
	Price               float64
	SupplierIds         datatypes.JSON `gorm:"type:jsonb"`
	CompatibleEquipment datatypes.JSON `gorm:"type:jsonb"`
	ErrorCodes          datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime"`
}

func (Part) TableName() string {
	return "parts"
}
