package dto

import "github.com/shopspring/decimal"

// PredefinedItemRequest is the body of POST/PUT /v1/predefined-items.
// Omitted tax rates fall back to 9%.
type PredefinedItemRequest struct {
	Name        string           `json:"name"         validate:"required,min=1,max=200"`
	HSN         string           `json:"hsn"          validate:"max=20"`
	DefaultRate decimal.Decimal  `json:"default_rate" validate:"min=0"`
	CGSTPercent *decimal.Decimal `json:"cgst_percent" validate:"omitempty,min=0,max=100"`
	SGSTPercent *decimal.Decimal `json:"sgst_percent" validate:"omitempty,min=0,max=100"`
}

type PredefinedItemResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	HSN         string          `json:"hsn"`
	DefaultRate decimal.Decimal `json:"default_rate"`
	CGSTPercent decimal.Decimal `json:"cgst_percent"`
	SGSTPercent decimal.Decimal `json:"sgst_percent"`
}
