package worker

// pdf_worker.go
// Renders the tax invoice PDF of a saved bill, records its path and
// optionally hands the file to the email queue.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"gstbilling/internal/infra"
	"gstbilling/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// PDFJobPayload is the job envelope sent to QueuePDF.
type PDFJobPayload struct {
	BillID string  `json:"bill_id"`
	Email  *string `json:"email,omitempty"`
}

// BillStore is the subset of the bill repository the PDF worker needs.
type BillStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	SetPDFPath(ctx context.Context, id uuid.UUID, path string) error
}

// EmailEnqueuer accepts follow-up email jobs.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type PDFWorker struct {
	bills          BillStore
	emails         EmailEnqueuer
	company        infra.Company
	pdfStoragePath string
}

func NewPDFWorker(bills BillStore, emails EmailEnqueuer, company infra.Company, pdfStoragePath string) *PDFWorker {
	return &PDFWorker{bills: bills, emails: emails, company: company, pdfStoragePath: pdfStoragePath}
}

// Process handles a single PDF job:
//  1. Fetch the bill with its items
//  2. Render the PDF into the storage directory
//  3. Store the relative path on the bill
//  4. Enqueue an email job when a recipient was given
func (w *PDFWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload PDFJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	billID, err := uuid.Parse(payload.BillID)
	if err != nil {
		return fmt.Errorf("%w: bill_id %q", ErrInvalidPayload, payload.BillID)
	}

	bill, err := w.bills.FindByID(ctx, billID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Deleted before the job ran.
		log.Warn().Str("bill_id", payload.BillID).Msg("pdf_worker: bill no longer exists, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("pdf_worker: load bill: %w", err)
	}

	var fileName string
	err = withRetry(ctx, maxAttempts, func(attempt int) error {
		name, err := infra.GenerateBillPDF(bill, w.company, w.pdfStoragePath)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("bill_id", payload.BillID).Msg("pdf_worker: render failed, retrying")
			return err
		}
		fileName = name
		return w.bills.SetPDFPath(ctx, billID, name)
	})
	if err != nil {
		return fmt.Errorf("pdf_worker: %w", err)
	}
	log.Info().Str("pdf", fileName).Str("invoice_no", bill.InvoiceNo).Msg("pdf_worker: PDF generated")

	if payload.Email == nil || *payload.Email == "" || w.emails == nil {
		return nil
	}
	job := EmailJobPayload{
		ToEmail: *payload.Email,
		Subject: fmt.Sprintf("Tax Invoice %s", bill.InvoiceNo),
		Body:    invoiceEmailBody(bill, w.company.Name),
		PDFPath: filepath.Join(w.pdfStoragePath, fileName),
	}
	if err := w.emails.EnqueueEmail(ctx, job); err != nil {
		log.Warn().Err(err).Str("email", *payload.Email).Msg("pdf_worker: failed to enqueue email")
		return nil
	}
	log.Info().Str("email", *payload.Email).Msg("pdf_worker: email job enqueued")
	return nil
}

func invoiceEmailBody(bill *model.Bill, company string) string {
	body := fmt.Sprintf("Dear %s,\n\nPlease find attached tax invoice %s dated %s.\nTotal: Rs. %s\n%s\n",
		bill.CustomerName, bill.InvoiceNo, bill.InvoiceDate.Format("02-01-2006"),
		bill.TotalAmount.StringFixed(2), bill.AmountInWords)
	if company != "" {
		body += "\nRegards,\n" + company + "\n"
	}
	return body
}
