package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bill is a saved GST tax invoice.
// PaymentStatus: "credit" | "paid"
type Bill struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey"`
	InvoiceNo       string     `gorm:"type:varchar(50);uniqueIndex;not null"`
	InvoiceDate     time.Time  `gorm:"type:date;not null"`
	DueDate         *time.Time `gorm:"type:date"`
	CustomerName    string     `gorm:"index;not null"`
	CustomerAddress string
	CustomerPhone   string `gorm:"type:varchar(20)"`
	CustomerGST     string `gorm:"type:varchar(20);column:customer_gst"`
	PlaceOfSupply   string
	Transport       string
	VehicleNumber   string `gorm:"type:varchar(20)"`

	TaxableAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CGSTAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;column:cgst_amount"`
	SGSTAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null;column:sgst_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AmountInWords string

	PaymentStatus string     `gorm:"type:varchar(10);index;not null;default:'credit'"`
	PaymentDate   *time.Time `gorm:"type:date"`
	Notes         string
	// PDFPath is relative to PDF_STORAGE_PATH env var
	PDFPath   *string    `gorm:"column:pdf_path"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []BillItem `gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE"`
}

func (b *Bill) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}

// BillItem is one persisted line of a Bill, kept in entry order by Position.
type BillItem struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BillID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Position     int             `gorm:"not null"`
	Name         string          `gorm:"not null"`
	HSN          string          `gorm:"type:varchar(20);column:hsn"`
	Quantity     decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Rate         decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	TaxableValue decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CGSTPercent  decimal.Decimal `gorm:"type:decimal(5,2);not null;column:cgst_percent"`
	CGSTAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;column:cgst_amount"`
	SGSTPercent  decimal.Decimal `gorm:"type:decimal(5,2);not null;column:sgst_percent"`
	SGSTAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;column:sgst_amount"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}

func (i *BillItem) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
