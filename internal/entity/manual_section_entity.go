package entity

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type ManualSection struct {
	Id           string          `gorm:"primaryKey"`
	Manufacturer string          `gorm:"index"`
	Equipment    string          `gorm:"index"`
	Title        string          `gorm:"not null"`
	Content      string          `gorm:"type:text"`
	Embedding    pgvector.Vector `gorm:"type:vector(768)"` // Gemini text-embedding-004 uses 768 dimensions
	CreatedAt    time.Time       `gorm:"autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
}

func (ManualSection) TableName() string {
	return "manual_sections"
}
