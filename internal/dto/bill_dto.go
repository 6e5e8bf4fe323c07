package dto

import (
	"gstbilling/internal/invoice"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// BillFilter is bound from query string of GET /v1/bills.
type BillFilter struct {
	Q             string `form:"q"`                                   // customer name or invoice number
	PaymentStatus string `form:"payment_status" validate:"omitempty,oneof=credit paid all"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type BillListResponse struct {
	Data  []BillResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// BillItemRequest carries the editable columns of a line. Derived columns sent
// by the client are ignored and recomputed on save.
type BillItemRequest struct {
	Name        string          `json:"name"         validate:"max=200"`
	HSN         string          `json:"hsn"          validate:"max=20"`
	Qty         decimal.Decimal `json:"qty"          validate:"min=0"`
	Rate        decimal.Decimal `json:"rate"         validate:"min=0"`
	CGSTPercent decimal.Decimal `json:"cgst_percent" validate:"min=0,max=100"`
	SGSTPercent decimal.Decimal `json:"sgst_percent" validate:"min=0,max=100"`
}

// BillRequest is the body of POST /v1/bills and PUT /v1/bills/:id.
type BillRequest struct {
	InvoiceNo       string            `json:"invoice_no"       validate:"required,max=50"`
	InvoiceDate     string            `json:"invoice_date"     validate:"required,datetime=2006-01-02"`
	DueDate         *string           `json:"due_date"         validate:"omitempty,datetime=2006-01-02"`
	CustomerName    string            `json:"customer_name"    validate:"required,max=200"`
	CustomerAddress string            `json:"customer_address" validate:"max=500"`
	CustomerPhone   string            `json:"customer_phone"   validate:"max=20"`
	CustomerGST     string            `json:"customer_gst"     validate:"max=20"`
	PlaceOfSupply   string            `json:"place_of_supply"  validate:"max=100"`
	Transport       string            `json:"transport"        validate:"max=100"`
	VehicleNumber   string            `json:"vehicle_number"   validate:"max=20"`
	PaymentStatus   string            `json:"payment_status"   validate:"omitempty,oneof=credit paid"`
	PaymentDate     *string           `json:"payment_date"     validate:"omitempty,datetime=2006-01-02"`
	Notes           string            `json:"notes"            validate:"max=1000"`
	TotalAmount     decimal.Decimal   `json:"total_amount"` // total the words were produced for
	AmountInWords   string            `json:"amount_in_words"`
	Items           []BillItemRequest `json:"items"            validate:"required,min=1,dive"`
}

// Submission converts the request into the engine payload.
func (r BillRequest) Submission() invoice.Submission {
	items := make([]invoice.Item, len(r.Items))
	for i, it := range r.Items {
		items[i] = invoice.Item{
			Name:        it.Name,
			HSN:         it.HSN,
			Quantity:    it.Qty,
			Rate:        it.Rate,
			CGSTPercent: it.CGSTPercent,
			SGSTPercent: it.SGSTPercent,
		}
	}
	return invoice.Submission{
		Header: invoice.Header{
			InvoiceNo:       r.InvoiceNo,
			InvoiceDate:     r.InvoiceDate,
			DueDate:         r.DueDate,
			CustomerName:    r.CustomerName,
			CustomerAddress: r.CustomerAddress,
			CustomerPhone:   r.CustomerPhone,
			CustomerGST:     r.CustomerGST,
			PlaceOfSupply:   r.PlaceOfSupply,
			Transport:       r.Transport,
			VehicleNumber:   r.VehicleNumber,
			PaymentStatus:   r.PaymentStatus,
			PaymentDate:     r.PaymentDate,
			Notes:           r.Notes,
		},
		Items:          items,
		DocumentTotals: invoice.DocumentTotals{TotalAmount: r.TotalAmount, AmountInWords: r.AmountInWords},
	}
}

type PaymentStatusRequest struct {
	PaymentStatus string  `json:"payment_status" validate:"required,oneof=credit paid"`
	Notes         *string `json:"notes"          validate:"omitempty,max=1000"`
}

type EmailBillRequest struct {
	To string `json:"to" validate:"required,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type BillResponse struct {
	ID              string          `json:"id"`
	InvoiceNo       string          `json:"invoice_no"`
	InvoiceDate     string          `json:"invoice_date"`
	DueDate         *string         `json:"due_date"`
	CustomerName    string          `json:"customer_name"`
	CustomerAddress string          `json:"customer_address"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerGST     string          `json:"customer_gst"`
	PlaceOfSupply   string          `json:"place_of_supply"`
	Transport       string          `json:"transport"`
	VehicleNumber   string          `json:"vehicle_number"`
	TaxableAmount   decimal.Decimal `json:"taxable_amount"`
	CGSTAmount      decimal.Decimal `json:"cgst_amount"`
	SGSTAmount      decimal.Decimal `json:"sgst_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AmountInWords   string          `json:"amount_in_words"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentDate     *string         `json:"payment_date"`
	Notes           string          `json:"notes"`
	HasPDF          bool            `json:"has_pdf"`
	CreatedAt       string          `json:"created_at"`
	Items           []invoice.Item  `json:"items"`
}
