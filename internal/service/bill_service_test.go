package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gstbilling/internal/dto"
	"gstbilling/internal/invoice"
	"gstbilling/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBillSvc(repo *stubBillRepo, words *stubWords, jobs *stubJobs, email bool) service.BillService {
	clock := &fixedClock{t: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)}
	opts := service.BillOptions{EmailEnabled: email, Now: clock.Now}
	if jobs != nil {
		opts.Jobs = jobs
	}
	var w invoice.WordsConverter
	if words != nil {
		w = words
	}
	return service.NewBillService(repo, w, opts)
}

func submission(invoiceNo, customer string, items ...invoice.Item) invoice.Submission {
	return invoice.Submission{
		Header: invoice.Header{
			InvoiceNo:    invoiceNo,
			InvoiceDate:  "2024-03-14",
			CustomerName: customer,
		},
		Items: items,
	}
}

func line(name, qty, rate string) invoice.Item {
	return invoice.Item{
		Name:        name,
		Quantity:    dec(qty),
		Rate:        dec(rate),
		CGSTPercent: invoice.DefaultCGSTPercent,
		SGSTPercent: invoice.DefaultSGSTPercent,
	}
}

func TestBillService_CreateRecomputesTotals(t *testing.T) {
	repo := newStubBillRepo()
	words := &stubWords{}
	jobs := &stubJobs{}
	svc := newBillSvc(repo, words, jobs, false)

	tampered := line("Cement", "10", "100")
	tampered.Total = dec("999999")
	tampered.TaxableValue = dec("1")

	resp, err := svc.Create(context.Background(), nil, submission("INV-1", "Sharma Traders", tampered, line("Sand", "5", "100")))
	require.NoError(t, err)

	assert.Equal(t, "1500.00", resp.TaxableAmount.StringFixed(2))
	assert.Equal(t, "135.00", resp.CGSTAmount.StringFixed(2))
	assert.Equal(t, "135.00", resp.SGSTAmount.StringFixed(2))
	assert.Equal(t, "1770.00", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "1770.00 Rupees Only", resp.AmountInWords)
	assert.Equal(t, "credit", resp.PaymentStatus)
	assert.Nil(t, resp.PaymentDate)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "1180.00", resp.Items[0].Total.StringFixed(2))

	require.Len(t, jobs.jobs, 1)
	assert.Equal(t, resp.ID, jobs.jobs[0].BillID)
	assert.Nil(t, jobs.jobs[0].Email)
}

func TestBillService_CreateKeepsClientWords(t *testing.T) {
	words := &stubWords{}
	svc := newBillSvc(newStubBillRepo(), words, nil, false)

	sub := submission("INV-2", "Verma", line("Tiles", "1", "100"))
	sub.TotalAmount = dec("118")
	sub.AmountInWords = "One Hundred and Eighteen Rupees Only"
	resp, err := svc.Create(context.Background(), nil, sub)
	require.NoError(t, err)
	assert.Equal(t, "One Hundred and Eighteen Rupees Only", resp.AmountInWords)
	assert.Zero(t, words.Calls())

	sub = submission("INV-3", "Verma", line("Tiles", "1", "100"))
	sub.TotalAmount = dec("118")
	sub.AmountInWords = invoice.WordsErrorText
	resp, err = svc.Create(context.Background(), nil, sub)
	require.NoError(t, err)
	assert.Equal(t, "118.00 Rupees Only", resp.AmountInWords)
}

func TestBillService_CreateReconvertsStaleWords(t *testing.T) {
	words := &stubWords{}
	svc := newBillSvc(newStubBillRepo(), words, nil, false)

	// Words and total were captured before the quantity changed to 10.
	sub := submission("INV-6", "Verma", line("Tiles", "10", "100"))
	sub.TotalAmount = dec("118")
	sub.AmountInWords = "One Hundred and Eighteen Rupees Only"
	resp, err := svc.Create(context.Background(), nil, sub)
	require.NoError(t, err)
	assert.Equal(t, "1180.00", resp.TotalAmount.StringFixed(2))
	assert.Equal(t, "1180.00 Rupees Only", resp.AmountInWords)
	assert.Equal(t, 1, words.Calls())

	// Words without a total cannot be checked, so they are converted too.
	sub = submission("INV-7", "Verma", line("Tiles", "1", "100"))
	sub.AmountInWords = "Nine Rupees Only"
	resp, err = svc.Create(context.Background(), nil, sub)
	require.NoError(t, err)
	assert.Equal(t, "118.00 Rupees Only", resp.AmountInWords)
	assert.Equal(t, 2, words.Calls())
}

func TestBillService_CreateSurvivesWordsFailure(t *testing.T) {
	svc := newBillSvc(newStubBillRepo(), &stubWords{err: errWordsDown}, nil, false)
	resp, err := svc.Create(context.Background(), nil, submission("INV-4", "Gupta", line("Rods", "2", "50")))
	require.NoError(t, err)
	assert.Empty(t, resp.AmountInWords)
	assert.Equal(t, "118.00", resp.TotalAmount.StringFixed(2))
}

func TestBillService_CreateValidation(t *testing.T) {
	svc := newBillSvc(newStubBillRepo(), nil, nil, false)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, submission("INV-5", "  ", line("a", "1", "1")))
	assert.ErrorIs(t, err, invoice.ErrRequiredFields)

	_, err = svc.Create(ctx, nil, submission("", "Customer", line("a", "1", "1")))
	assert.ErrorIs(t, err, invoice.ErrRequiredFields)

	_, err = svc.Create(ctx, nil, submission("INV-5", "Customer"))
	assert.ErrorIs(t, err, service.ErrNoItems)

	sub := submission("INV-5", "Customer", line("a", "1", "1"))
	sub.InvoiceDate = "15/03/2024"
	_, err = svc.Create(ctx, nil, sub)
	assert.ErrorIs(t, err, service.ErrInvalidDate)
}

func TestBillService_DuplicateInvoiceNo(t *testing.T) {
	svc := newBillSvc(newStubBillRepo(), nil, nil, false)
	ctx := context.Background()

	_, err := svc.Create(ctx, nil, submission("INV-DUP", "A", line("a", "1", "1")))
	require.NoError(t, err)
	_, err = svc.Create(ctx, nil, submission("INV-DUP", "B", line("a", "1", "1")))
	assert.ErrorIs(t, err, service.ErrDuplicateInvoiceNo)
}

func TestBillService_UniqueIndexViolationIsDuplicate(t *testing.T) {
	repo := newStubBillRepo()
	svc := newBillSvc(repo, nil, nil, false)
	ctx := context.Background()

	saved, err := svc.Create(ctx, nil, submission("INV-R", "A", line("a", "1", "1")))
	require.NoError(t, err)

	// Another writer took the number between the pre-check and the insert.
	repo.saveErr = fmt.Errorf("insert bill: %w", gorm.ErrDuplicatedKey)
	_, err = svc.Create(ctx, nil, submission("INV-S", "B", line("a", "1", "1")))
	assert.ErrorIs(t, err, service.ErrDuplicateInvoiceNo)
	_, err = svc.Update(ctx, uuid.MustParse(saved.ID), submission("INV-R", "A", line("a", "2", "1")))
	assert.ErrorIs(t, err, service.ErrDuplicateInvoiceNo)

	repo.saveErr = errors.New("connection reset")
	_, err = svc.Create(ctx, nil, submission("INV-T", "C", line("a", "1", "1")))
	assert.NotErrorIs(t, err, service.ErrDuplicateInvoiceNo)
}

func TestBillService_PaidDefaultsPaymentDate(t *testing.T) {
	svc := newBillSvc(newStubBillRepo(), nil, nil, false)
	sub := submission("INV-P", "A", line("a", "1", "1"))
	sub.PaymentStatus = invoice.PaymentPaid

	resp, err := svc.Create(context.Background(), nil, sub)
	require.NoError(t, err)
	require.NotNil(t, resp.PaymentDate)
	assert.Equal(t, "2024-03-15", *resp.PaymentDate)
}

func TestBillService_Update(t *testing.T) {
	repo := newStubBillRepo()
	jobs := &stubJobs{}
	svc := newBillSvc(repo, &stubWords{}, jobs, false)
	ctx := context.Background()

	first, err := svc.Create(ctx, nil, submission("INV-A", "A", line("a", "1", "100")))
	require.NoError(t, err)
	_, err = svc.Create(ctx, nil, submission("INV-B", "B", line("b", "1", "100")))
	require.NoError(t, err)

	id := uuid.MustParse(first.ID)
	updated, err := svc.Update(ctx, id, submission("INV-A", "A & Co", line("a", "2", "100")))
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Equal(t, "A & Co", updated.CustomerName)
	assert.Equal(t, "236.00", updated.TotalAmount.StringFixed(2))
	assert.Len(t, jobs.jobs, 3)

	_, err = svc.Update(ctx, id, submission("INV-B", "A", line("a", "1", "1")))
	assert.ErrorIs(t, err, service.ErrDuplicateInvoiceNo)

	_, err = svc.Update(ctx, uuid.New(), submission("INV-C", "A", line("a", "1", "1")))
	assert.ErrorIs(t, err, service.ErrBillNotFound)
}

func TestBillService_PaymentStatus(t *testing.T) {
	svc := newBillSvc(newStubBillRepo(), nil, nil, false)
	ctx := context.Background()

	b, err := svc.Create(ctx, nil, submission("INV-PS", "A", line("a", "1", "1")))
	require.NoError(t, err)
	id := uuid.MustParse(b.ID)

	notes := "Payment completed"
	resp, err := svc.UpdatePaymentStatus(ctx, id, dto.PaymentStatusRequest{PaymentStatus: "paid", Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.PaymentStatus)
	require.NotNil(t, resp.PaymentDate)
	assert.Equal(t, "2024-03-15", *resp.PaymentDate)
	assert.Equal(t, "Payment completed", resp.Notes)

	resp, err = svc.UpdatePaymentStatus(ctx, id, dto.PaymentStatusRequest{PaymentStatus: "credit"})
	require.NoError(t, err)
	assert.Equal(t, "credit", resp.PaymentStatus)
	assert.Nil(t, resp.PaymentDate)
	assert.Equal(t, "Payment completed", resp.Notes)

	_, err = svc.UpdatePaymentStatus(ctx, uuid.New(), dto.PaymentStatusRequest{PaymentStatus: "paid"})
	assert.ErrorIs(t, err, service.ErrBillNotFound)
}

func TestBillService_ListGetDelete(t *testing.T) {
	svc := newBillSvc(newStubBillRepo(), nil, nil, false)
	ctx := context.Background()

	a, err := svc.Create(ctx, nil, submission("INV-L1", "Sharma Traders", line("a", "1", "1")))
	require.NoError(t, err)
	_, err = svc.Create(ctx, nil, submission("INV-L2", "Verma", line("a", "1", "1")))
	require.NoError(t, err)

	list, err := svc.List(ctx, dto.BillFilter{Q: "sharma"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 50, list.Limit)

	id := uuid.MustParse(a.ID)
	got, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "INV-L1", got.InvoiceNo)

	require.NoError(t, svc.Delete(ctx, id))
	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, service.ErrBillNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id), service.ErrBillNotFound)
}

func TestBillService_RenderPDF(t *testing.T) {
	svc := newBillSvc(newStubBillRepo(), nil, nil, false)
	ctx := context.Background()
	b, err := svc.Create(ctx, nil, submission("INV/2024/7", "A", line("a", "1", "1")))
	require.NoError(t, err)

	name, content, err := svc.RenderPDF(ctx, uuid.MustParse(b.ID))
	require.NoError(t, err)
	assert.Equal(t, "INV_2024_7.pdf", name)
	assert.True(t, len(content) > 4 && string(content[:4]) == "%PDF")
}

func TestBillService_Email(t *testing.T) {
	ctx := context.Background()

	disabled := newBillSvc(newStubBillRepo(), nil, &stubJobs{}, false)
	assert.ErrorIs(t, disabled.Email(ctx, uuid.New(), "a@b.c"), service.ErrEmailDisabled)

	noQueue := newBillSvc(newStubBillRepo(), nil, nil, true)
	assert.ErrorIs(t, noQueue.Email(ctx, uuid.New(), "a@b.c"), service.ErrQueueUnavailable)

	jobs := &stubJobs{}
	svc := newBillSvc(newStubBillRepo(), nil, jobs, true)
	b, err := svc.Create(ctx, nil, submission("INV-E", "A", line("a", "1", "1")))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Email(ctx, uuid.New(), "a@b.c"), service.ErrBillNotFound)
	require.NoError(t, svc.Email(ctx, uuid.MustParse(b.ID), "buyer@example.com"))
	require.Len(t, jobs.jobs, 2)
	require.NotNil(t, jobs.jobs[1].Email)
	assert.Equal(t, "buyer@example.com", *jobs.jobs[1].Email)
}

func TestBillService_EnqueueFailureDoesNotFailSave(t *testing.T) {
	svc := newBillSvc(newStubBillRepo(), nil, &stubJobs{err: errors.New("redis down")}, false)
	_, err := svc.Create(context.Background(), nil, submission("INV-Q", "A", line("a", "1", "1")))
	assert.NoError(t, err)
}
