package entity

import "time"

type WorkOrder struct {
	Id          string `gorm:"primaryKey"`
	AssetId     string `gorm:"not null;index"`
	Description string `gorm:"type:text"`
	Resolution  string `gorm:"type:text"`
	PartUsed    string
	ClosedAt    time.Time `gorm:"index"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}
