package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gstbilling/internal/dto"
	"gstbilling/internal/infra"
	"gstbilling/internal/invoice"
	"gstbilling/internal/model"
	"gstbilling/internal/repository"
	"gstbilling/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	ErrBillNotFound       = errors.New("Bill not found")
	ErrDuplicateInvoiceNo = errors.New("Invoice number already exists")
	ErrNoItems            = errors.New("An invoice needs at least one item")
	ErrEmailDisabled      = errors.New("Email delivery is not configured")
	ErrQueueUnavailable   = errors.New("Background jobs are unavailable")
)

// JobQueue accepts background jobs for saved bills.
type JobQueue interface {
	EnqueuePDF(ctx context.Context, payload worker.PDFJobPayload) error
}

// BillOptions carries the collaborators that are optional in tests.
type BillOptions struct {
	Jobs           JobQueue
	Company        infra.Company
	PDFStoragePath string
	EmailEnabled   bool
	Now            func() time.Time
}

type BillService interface {
	Create(ctx context.Context, createdBy *uuid.UUID, sub invoice.Submission) (*dto.BillResponse, error)
	Update(ctx context.Context, id uuid.UUID, sub invoice.Submission) (*dto.BillResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.BillResponse, error)
	List(ctx context.Context, filter dto.BillFilter) (*dto.BillListResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, req dto.PaymentStatusRequest) (*dto.BillResponse, error)
	// RenderPDF returns the download file name and the rendered tax invoice.
	RenderPDF(ctx context.Context, id uuid.UUID) (string, []byte, error)
	Email(ctx context.Context, id uuid.UUID, to string) error
}

type billService struct {
	repo  repository.BillRepository
	words invoice.WordsConverter
	opts  BillOptions
}

func NewBillService(repo repository.BillRepository, words invoice.WordsConverter, opts BillOptions) BillService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &billService{repo: repo, words: words, opts: opts}
}

// ── Create / Update ──────────────────────────────────────────────────────────
// Both paths rebuild every derived number from the submitted inputs:
//   1. Validate header (customer name, invoice number) and dates
//   2. Normalize each item and aggregate document totals
//   3. Keep amount_in_words only if it matches the recomputed total
//   4. Check invoice number uniqueness
//   5. Persist inside a transaction
//   6. (async) enqueue PDF rendering

func (s *billService) Create(ctx context.Context, createdBy *uuid.UUID, sub invoice.Submission) (*dto.BillResponse, error) {
	bill, err := s.build(ctx, sub)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueInvoiceNo(ctx, bill.InvoiceNo, uuid.Nil); err != nil {
		return nil, err
	}
	bill.CreatedBy = createdBy

	if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.Create(ctx, tx, bill)
	}); err != nil {
		if uniqueViolation(err) {
			// Lost a race with another save of the same invoice number.
			return nil, ErrDuplicateInvoiceNo
		}
		return nil, err
	}
	log.Info().Str("invoice_no", bill.InvoiceNo).Str("total", bill.TotalAmount.StringFixed(2)).Msg("bill created")

	s.enqueuePDF(ctx, bill.ID, nil)
	resp := toBillResponse(bill)
	return &resp, nil
}

func (s *billService) Update(ctx context.Context, id uuid.UUID, sub invoice.Submission) (*dto.BillResponse, error) {
	existing, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	bill, err := s.build(ctx, sub)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueInvoiceNo(ctx, bill.InvoiceNo, id); err != nil {
		return nil, err
	}
	bill.ID = existing.ID
	bill.CreatedBy = existing.CreatedBy
	bill.CreatedAt = existing.CreatedAt
	// The stored PDF is stale until the worker renders it again.
	bill.PDFPath = nil

	if err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.Update(ctx, tx, bill)
	}); err != nil {
		if uniqueViolation(err) {
			// Lost a race with another save of the same invoice number.
			return nil, ErrDuplicateInvoiceNo
		}
		return nil, err
	}
	log.Info().Str("invoice_no", bill.InvoiceNo).Str("total", bill.TotalAmount.StringFixed(2)).Msg("bill updated")

	s.enqueuePDF(ctx, bill.ID, nil)
	resp := toBillResponse(bill)
	return &resp, nil
}

func (s *billService) build(ctx context.Context, sub invoice.Submission) (*model.Bill, error) {
	if err := sub.Header.Validate(); err != nil {
		return nil, err
	}
	if len(sub.Items) == 0 {
		return nil, ErrNoItems
	}

	h := sub.Header
	invoiceDate := today(s.opts.Now())
	if h.InvoiceDate != "" {
		d, err := parseDate(h.InvoiceDate)
		if err != nil {
			return nil, err
		}
		invoiceDate = d
	}
	dueDate, err := parseOptionalDate(h.DueDate)
	if err != nil {
		return nil, err
	}
	paymentDate, err := parseOptionalDate(h.PaymentDate)
	if err != nil {
		return nil, err
	}

	status := h.PaymentStatus
	if status == "" {
		status = invoice.PaymentCredit
	}
	switch status {
	case invoice.PaymentPaid:
		if paymentDate == nil {
			d := today(s.opts.Now())
			paymentDate = &d
		}
	default:
		paymentDate = nil
	}

	items := make([]invoice.Item, len(sub.Items))
	for i, it := range sub.Items {
		items[i] = invoice.Normalize(it)
	}
	totals := invoice.AggregateTotals(items)
	totals.AmountInWords = s.wordsFor(ctx, totals, sub.DocumentTotals)

	bill := &model.Bill{
		InvoiceNo:       strings.TrimSpace(h.InvoiceNo),
		InvoiceDate:     invoiceDate,
		DueDate:         dueDate,
		CustomerName:    strings.TrimSpace(h.CustomerName),
		CustomerAddress: h.CustomerAddress,
		CustomerPhone:   h.CustomerPhone,
		CustomerGST:     h.CustomerGST,
		PlaceOfSupply:   h.PlaceOfSupply,
		Transport:       h.Transport,
		VehicleNumber:   h.VehicleNumber,
		TaxableAmount:   totals.TaxableAmount,
		CGSTAmount:      totals.CGSTAmount,
		SGSTAmount:      totals.SGSTAmount,
		TotalAmount:     totals.TotalAmount,
		AmountInWords:   totals.AmountInWords,
		PaymentStatus:   status,
		PaymentDate:     paymentDate,
		Notes:           h.Notes,
		Items:           make([]model.BillItem, len(items)),
	}
	for i, it := range items {
		bill.Items[i] = model.BillItem{
			Position:     i,
			Name:         it.Name,
			HSN:          it.HSN,
			Quantity:     it.Quantity,
			Rate:         it.Rate,
			TaxableValue: it.TaxableValue,
			CGSTPercent:  it.CGSTPercent,
			CGSTAmount:   it.CGSTAmount,
			SGSTPercent:  it.SGSTPercent,
			SGSTAmount:   it.SGSTAmount,
			Total:        it.Total,
		}
	}
	return bill, nil
}

// wordsFor keeps the submitted words only when they were produced for the
// recomputed total; missing, failed or stale words are converted again. A
// failed conversion leaves the field empty rather than blocking the save.
func (s *billService) wordsFor(ctx context.Context, totals invoice.DocumentTotals, given invoice.DocumentTotals) string {
	fresh := invoice.InRange(given.TotalAmount) && given.TotalAmount.Equal(totals.TotalAmount)
	if fresh && given.AmountInWords != "" && given.AmountInWords != invoice.WordsErrorText {
		return given.AmountInWords
	}
	if s.words == nil || !totals.TotalAmount.IsPositive() {
		return ""
	}
	words, err := s.words.AmountInWords(ctx, totals.TotalAmount)
	if err != nil {
		log.Warn().Err(err).Str("amount", totals.TotalAmount.StringFixed(2)).Msg("bill: amount in words failed")
		return ""
	}
	return words
}

func (s *billService) ensureUniqueInvoiceNo(ctx context.Context, invoiceNo string, self uuid.UUID) error {
	other, err := s.repo.FindByInvoiceNo(ctx, invoiceNo)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != self {
		return ErrDuplicateInvoiceNo
	}
	return nil
}

func (s *billService) enqueuePDF(ctx context.Context, id uuid.UUID, email *string) {
	if s.opts.Jobs == nil {
		return
	}
	if err := s.opts.Jobs.EnqueuePDF(ctx, worker.PDFJobPayload{BillID: id.String(), Email: email}); err != nil {
		log.Warn().Err(err).Str("bill_id", id.String()).Msg("bill: failed to enqueue PDF job")
	}
}

// ── Read / Delete ────────────────────────────────────────────────────────────

func (s *billService) Get(ctx context.Context, id uuid.UUID) (*dto.BillResponse, error) {
	bill, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toBillResponse(bill)
	return &resp, nil
}

func (s *billService) List(ctx context.Context, filter dto.BillFilter) (*dto.BillListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	bills, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.BillResponse, len(bills))
	for i := range bills {
		data[i] = toBillResponse(&bills[i])
	}
	return &dto.BillListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *billService) Delete(ctx context.Context, id uuid.UUID) error {
	bill, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBillNotFound
		}
		return err
	}
	if bill.PDFPath != nil && s.opts.PDFStoragePath != "" {
		if err := os.Remove(filepath.Join(s.opts.PDFStoragePath, *bill.PDFPath)); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("invoice_no", bill.InvoiceNo).Msg("bill: failed to remove PDF")
		}
	}
	log.Info().Str("invoice_no", bill.InvoiceNo).Msg("bill deleted")
	return nil
}

// UpdatePaymentStatus marks a bill paid (stamping today's date) or back to
// credit (clearing the date). Notes are replaced only when provided.
func (s *billService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, req dto.PaymentStatusRequest) (*dto.BillResponse, error) {
	var paidOn *time.Time
	if req.PaymentStatus == invoice.PaymentPaid {
		d := today(s.opts.Now())
		paidOn = &d
	}
	if err := s.repo.UpdatePayment(ctx, id, req.PaymentStatus, paidOn, req.Notes); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// ── Documents ────────────────────────────────────────────────────────────────

func (s *billService) RenderPDF(ctx context.Context, id uuid.UUID) (string, []byte, error) {
	bill, err := s.find(ctx, id)
	if err != nil {
		return "", nil, err
	}
	var buf bytes.Buffer
	if err := infra.RenderBillPDF(bill, s.opts.Company, &buf); err != nil {
		return "", nil, err
	}
	return infra.BillPDFName(bill.InvoiceNo), buf.Bytes(), nil
}

// Email queues a fresh PDF render followed by delivery to `to`.
func (s *billService) Email(ctx context.Context, id uuid.UUID, to string) error {
	if !s.opts.EmailEnabled {
		return ErrEmailDisabled
	}
	if s.opts.Jobs == nil {
		return ErrQueueUnavailable
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	return s.opts.Jobs.EnqueuePDF(ctx, worker.PDFJobPayload{BillID: id.String(), Email: &to})
}

func (s *billService) find(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	bill, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBillNotFound
	}
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func toBillResponse(b *model.Bill) dto.BillResponse {
	items := make([]invoice.Item, len(b.Items))
	for i, it := range b.Items {
		items[i] = invoice.Item{
			Name:         it.Name,
			HSN:          it.HSN,
			Quantity:     it.Quantity,
			Rate:         it.Rate,
			TaxableValue: it.TaxableValue,
			CGSTPercent:  it.CGSTPercent,
			CGSTAmount:   it.CGSTAmount,
			SGSTPercent:  it.SGSTPercent,
			SGSTAmount:   it.SGSTAmount,
			Total:        it.Total,
		}
	}
	return dto.BillResponse{
		ID:              b.ID.String(),
		InvoiceNo:       b.InvoiceNo,
		InvoiceDate:     b.InvoiceDate.Format(dateLayout),
		DueDate:         formatOptionalDate(b.DueDate),
		CustomerName:    b.CustomerName,
		CustomerAddress: b.CustomerAddress,
		CustomerPhone:   b.CustomerPhone,
		CustomerGST:     b.CustomerGST,
		PlaceOfSupply:   b.PlaceOfSupply,
		Transport:       b.Transport,
		VehicleNumber:   b.VehicleNumber,
		TaxableAmount:   b.TaxableAmount,
		CGSTAmount:      b.CGSTAmount,
		SGSTAmount:      b.SGSTAmount,
		TotalAmount:     b.TotalAmount,
		AmountInWords:   b.AmountInWords,
		PaymentStatus:   b.PaymentStatus,
		PaymentDate:     formatOptionalDate(b.PaymentDate),
		Notes:           b.Notes,
		HasPDF:          b.PDFPath != nil && *b.PDFPath != "",
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
		Items:           items,
	}
}
