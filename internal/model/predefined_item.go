package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PredefinedItem is a catalog entry used to pre-fill invoice lines.
type PredefinedItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name        string          `gorm:"index;not null"`
	HSN         string          `gorm:"type:varchar(20);column:hsn"`
	DefaultRate decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CGSTPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;column:cgst_percent"`
	SGSTPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;column:sgst_percent"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *PredefinedItem) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
