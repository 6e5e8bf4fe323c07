package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gstbilling/internal/dto"
	"gstbilling/internal/model"
	"gstbilling/internal/repository"
	"gstbilling/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubBillRepo is an in-memory BillRepository for testing.
type stubBillRepo struct {
	mu      sync.Mutex
	bills   map[uuid.UUID]*model.Bill
	saveErr error
	updates int
}

func newStubBillRepo() *stubBillRepo {
	return &stubBillRepo{bills: make(map[uuid.UUID]*model.Bill)}
}

func (r *stubBillRepo) Create(_ context.Context, _ *gorm.DB, b *model.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	cp := *b
	r.bills[b.ID] = &cp
	return nil
}

func (r *stubBillRepo) Update(_ context.Context, _ *gorm.DB, b *model.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.updates++
	if _, ok := r.bills[b.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *b
	r.bills[b.ID] = &cp
	return nil
}

func (r *stubBillRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *stubBillRepo) FindByInvoiceNo(_ context.Context, invoiceNo string) (*model.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bills {
		if b.InvoiceNo == invoiceNo {
			cp := *b
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBillRepo) List(_ context.Context, filter dto.BillFilter) ([]model.Bill, int64, error) {
	var out []model.Bill
	q := strings.ToLower(filter.Q)
	for _, b := range r.sorted() {
		if q != "" && !strings.Contains(strings.ToLower(b.CustomerName), q) && !strings.Contains(strings.ToLower(b.InvoiceNo), q) {
			continue
		}
		if filter.PaymentStatus != "" && filter.PaymentStatus != "all" && b.PaymentStatus != filter.PaymentStatus {
			continue
		}
		out = append(out, b)
	}
	return out, int64(len(out)), nil
}

func (r *stubBillRepo) ListBetween(_ context.Context, from, to *time.Time) ([]model.Bill, error) {
	var out []model.Bill
	for _, b := range r.sorted() {
		if from != nil && b.InvoiceDate.Before(*from) {
			continue
		}
		if to != nil && b.InvoiceDate.After(*to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *stubBillRepo) ListByStatus(_ context.Context, status string) ([]model.Bill, error) {
	var out []model.Bill
	for _, b := range r.sorted() {
		if b.PaymentStatus == status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *stubBillRepo) UpdatePayment(_ context.Context, id uuid.UUID, status string, paidOn *time.Time, notes *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bills[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	b.PaymentStatus = status
	b.PaymentDate = paidOn
	if notes != nil {
		b.Notes = *notes
	}
	return nil
}

func (r *stubBillRepo) SetPDFPath(_ context.Context, id uuid.UUID, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bills[id]; ok {
		b.PDFPath = &path
	}
	return nil
}

func (r *stubBillRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bills[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.bills, id)
	return nil
}

func (r *stubBillRepo) DB() *gorm.DB { return nil }

func (r *stubBillRepo) sorted() []model.Bill {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Bill, 0, len(r.bills))
	for _, b := range r.bills {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceDate.Before(out[j].InvoiceDate) })
	return out
}

var _ repository.BillRepository = (*stubBillRepo)(nil)

// stubItemRepo is an in-memory PredefinedItemRepository.
type stubItemRepo struct {
	items map[uuid.UUID]*model.PredefinedItem
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{items: make(map[uuid.UUID]*model.PredefinedItem)}
}

func (r *stubItemRepo) Create(_ context.Context, p *model.PredefinedItem) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *stubItemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PredefinedItem, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubItemRepo) List(_ context.Context) ([]model.PredefinedItem, error) {
	out := make([]model.PredefinedItem, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubItemRepo) Update(_ context.Context, p *model.PredefinedItem) error {
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *stubItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.items, id)
	return nil
}

var _ repository.PredefinedItemRepository = (*stubItemRepo)(nil)

// stubUserRepo is an in-memory UserRepository.
type stubUserRepo struct {
	users []*model.User
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users = append(r.users, u)
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Active && (u.Username == username || strings.EqualFold(u.Email, username)) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Exists(_ context.Context, username, email string) (bool, error) {
	for _, u := range r.users {
		if u.Username == username || strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.users)), nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// stubWords renders "<amount> Rupees Only" or fails with err.
type stubWords struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (w *stubWords) AmountInWords(_ context.Context, amount decimal.Decimal) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	if w.err != nil {
		return "", w.err
	}
	return amount.StringFixed(2) + " Rupees Only", nil
}

func (w *stubWords) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// stubJobs records PDF jobs.
type stubJobs struct {
	mu   sync.Mutex
	jobs []worker.PDFJobPayload
	err  error
}

func (j *stubJobs) EnqueuePDF(_ context.Context, p worker.PDFJobPayload) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.jobs = append(j.jobs, p)
	return nil
}

var errWordsDown = errors.New("words service down")

// fixedClock returns a settable clock for services that take a Now func.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
