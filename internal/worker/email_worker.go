package worker

// email_worker.go
// Sends invoice PDFs to customers via SMTP.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gstbilling/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	PDFPath string `json:"pdf_path"`
}

// InvoiceMailer delivers one message with an optional PDF attachment.
type InvoiceMailer interface {
	SendInvoice(to, subject, body, pdfPath string) error
}

type EmailWorker struct {
	mailer InvoiceMailer
}

func NewEmailWorker(mailer InvoiceMailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

// Process sends an email with the invoice PDF as attachment, retrying
// transient SMTP failures.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email, skipping")
		return nil
	}

	disabled := false
	err := withRetry(ctx, maxAttempts, func(attempt int) error {
		err := w.mailer.SendInvoice(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
		if errors.Is(err, infra.ErrMailerDisabled) {
			disabled = true
			return nil
		}
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("to", payload.ToEmail).Msg("email_worker: send failed")
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("email_worker: %w", err)
	}
	if disabled {
		log.Warn().Str("to", payload.ToEmail).Msg("email_worker: SMTP not configured, dropping email")
		return nil
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: invoice sent")
	return nil
}
