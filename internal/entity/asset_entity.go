package entity

import "time"

type Asset struct {
	Id            string `gorm:"primaryKey"`
	AssetTag      string `gorm:"uniqueIndex;not null"`
	EquipmentName string `gorm:"index"`
	Manufacturer  string `gorm:"index"`
	Department    string `gorm:"index"`
	Location      string
	InstalledAt   time.Time
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (Asset) TableName() string {
	return "assets"
}
