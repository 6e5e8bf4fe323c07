package dto

import "gstbilling/internal/invoice"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateDraftRequest opens an editing session. With BillID the session edits
// that bill; without it a new invoice number is generated.
type CreateDraftRequest struct {
	BillID *string `json:"bill_id" validate:"omitempty,uuid"`
}

// DraftHeaderRequest replaces the header of a draft. Required fields are only
// enforced on submit.
type DraftHeaderRequest struct {
	InvoiceNo       string  `json:"invoice_no"       validate:"max=50"`
	InvoiceDate     string  `json:"invoice_date"     validate:"omitempty,datetime=2006-01-02"`
	DueDate         *string `json:"due_date"         validate:"omitempty,datetime=2006-01-02"`
	CustomerName    string  `json:"customer_name"    validate:"max=200"`
	CustomerAddress string  `json:"customer_address" validate:"max=500"`
	CustomerPhone   string  `json:"customer_phone"   validate:"max=20"`
	CustomerGST     string  `json:"customer_gst"     validate:"max=20"`
	PlaceOfSupply   string  `json:"place_of_supply"  validate:"max=100"`
	Transport       string  `json:"transport"        validate:"max=100"`
	VehicleNumber   string  `json:"vehicle_number"   validate:"max=20"`
	PaymentStatus   string  `json:"payment_status"   validate:"omitempty,oneof=credit paid"`
	PaymentDate     *string `json:"payment_date"     validate:"omitempty,datetime=2006-01-02"`
	Notes           string  `json:"notes"            validate:"max=1000"`
}

func (r DraftHeaderRequest) Header() invoice.Header {
	return invoice.Header{
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
	}
}

type AddDraftItemRequest struct {
	PredefinedItemID *string `json:"predefined_item_id" validate:"omitempty,uuid"`
}

type UpdateDraftItemRequest struct {
	Field string `json:"field" validate:"required,oneof=name hsn qty rate cgst_percent sgst_percent"`
	Value string `json:"value" validate:"max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DraftResponse struct {
	ID           string                 `json:"id"`
	BillID       *string                `json:"bill_id"`
	Header       invoice.Header         `json:"header"`
	Items        []invoice.LineItem     `json:"items"`
	Totals       invoice.DocumentTotals `json:"totals"`
	WordsPending bool                   `json:"words_pending"`
	ExpiresAt    string                 `json:"expires_at"`
}

type WordsResponse struct {
	Amount string `json:"amount"`
	Words  string `json:"words"`
}
