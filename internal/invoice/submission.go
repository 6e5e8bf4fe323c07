package invoice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRequiredFields carries the user-facing message for a header that is not
// ready to be saved. The text is sent verbatim as the API error detail, so it
// is written as a sentence.
var ErrRequiredFields = errors.New("Please fill in required fields")

var (
	ErrMissingCustomerName = fmt.Errorf("%w: customer name", ErrRequiredFields)
	ErrMissingInvoiceNo    = fmt.Errorf("%w: invoice number", ErrRequiredFields)
)

// Payment statuses.
const (
	PaymentCredit = "credit"
	PaymentPaid   = "paid"
)

// Header holds the invoice fields that live outside the line-item table.
// Dates use the YYYY-MM-DD layout.
type Header struct {
	InvoiceNo       string  `json:"invoice_no"`
	InvoiceDate     string  `json:"invoice_date"`
	DueDate         *string `json:"due_date"`
	CustomerName    string  `json:"customer_name"`
	CustomerAddress string  `json:"customer_address"`
	CustomerPhone   string  `json:"customer_phone"`
	CustomerGST     string  `json:"customer_gst"`
	PlaceOfSupply   string  `json:"place_of_supply"`
	Transport       string  `json:"transport"`
	VehicleNumber   string  `json:"vehicle_number"`
	PaymentStatus   string  `json:"payment_status"`
	PaymentDate     *string `json:"payment_date"`
	Notes           string  `json:"notes"`
}

// Validate checks the fields a bill can not be saved without.
func (h Header) Validate() error {
	if strings.TrimSpace(h.CustomerName) == "" {
		return ErrMissingCustomerName
	}
	if strings.TrimSpace(h.InvoiceNo) == "" {
		return ErrMissingInvoiceNo
	}
	return nil
}

// Submission is the payload handed to bill persistence: header, lines without
// session ids, and the document totals.
type Submission struct {
	Header
	Items []Item `json:"items"`
	DocumentTotals
}

// PrepareForSubmission validates h and assembles the payload from the current
// lines and totals. Nothing is mutated.
func (e *Editor) PrepareForSubmission(h Header) (*Submission, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if h.PaymentStatus == "" {
		h.PaymentStatus = PaymentCredit
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return &Submission{
		Header:         h,
		Items:          e.plainItemsLocked(),
		DocumentTotals: e.totals,
	}, nil
}
