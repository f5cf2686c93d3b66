package entity

import "time"

type Supplier struct {
	Id           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Rating       float64
	LeadTimeDays int
	Region       string
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Supplier) TableName() string {
	return "suppliers"
}
