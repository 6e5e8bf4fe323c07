package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gstbilling/internal/dto"
	"gstbilling/internal/invoice"
	"gstbilling/internal/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrDraftNotFound = errors.New("Draft not found or expired")

const invoiceNoLayout = "200601021504"

// DraftOptions configures the in-memory draft store.
type DraftOptions struct {
	TTL          time.Duration
	WordsTimeout time.Duration
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

// DraftService hosts invoice editing sessions for clients that do not run
// the engine themselves. Each draft wraps one invoice.Editor plus the header
// being typed; drafts live in memory and expire after a period of inactivity.
type DraftService interface {
	Create(ctx context.Context, createdBy *uuid.UUID, req dto.CreateDraftRequest) (*dto.DraftResponse, error)
	Get(ctx context.Context, id string) (*dto.DraftResponse, error)
	UpdateHeader(ctx context.Context, id string, header invoice.Header) (*dto.DraftResponse, error)
	AddItem(ctx context.Context, id string, predefinedItemID *uuid.UUID) (*dto.DraftResponse, error)
	UpdateItem(ctx context.Context, id string, itemID int64, field invoice.Field, value string) (*dto.DraftResponse, error)
	RemoveItem(ctx context.Context, id string, itemID int64) (*dto.DraftResponse, error)
	// Submit waits for pending words, saves the draft as a bill and discards
	// it. On failure the draft is kept so the user can correct it.
	Submit(ctx context.Context, id string) (*dto.BillResponse, error)
	Discard(ctx context.Context, id string) error
	// PurgeExpired drops idle drafts and returns how many were removed.
	PurgeExpired() int
	StartJanitor(ctx context.Context, interval time.Duration)
}

type draft struct {
	mu        sync.Mutex
	id        string
	editor    *invoice.Editor
	header    invoice.Header
	billID    *uuid.UUID
	createdBy *uuid.UUID
	expiresAt time.Time
	closed    bool // submitted or discarded; guarded by mu
}

type draftService struct {
	bills   BillService
	catalog PredefinedItemService
	words   invoice.WordsConverter
	opts    DraftOptions
	mu      sync.RWMutex
	drafts  map[string]*draft
}

func NewDraftService(bills BillService, catalog PredefinedItemService, words invoice.WordsConverter, opts DraftOptions) DraftService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	return &draftService{
		bills:   bills,
		catalog: catalog,
		words:   words,
		opts:    opts,
		drafts:  make(map[string]*draft),
	}
}

// ── Session lifecycle ────────────────────────────────────────────────────────

func (s *draftService) Create(ctx context.Context, createdBy *uuid.UUID, req dto.CreateDraftRequest) (*dto.DraftResponse, error) {
	d := &draft{id: uuid.NewString(), createdBy: createdBy}
	editorOpts := []invoice.Option{invoice.WithWordsTimeout(s.opts.WordsTimeout)}

	if req.BillID != nil && *req.BillID != "" {
		billID, err := uuid.Parse(*req.BillID)
		if err != nil {
			return nil, ErrBillNotFound
		}
		bill, err := s.bills.Get(ctx, billID)
		if err != nil {
			return nil, err
		}
		d.billID = &billID
		d.header = headerFromBill(bill)
		d.editor = invoice.NewEditorFromItems(s.words, bill.Items, editorOpts...)
	} else {
		now := s.opts.Now()
		d.header = invoice.Header{
			InvoiceNo:     "INV" + now.Format(invoiceNoLayout),
			InvoiceDate:   now.Format(dateLayout),
			PaymentStatus: invoice.PaymentCredit,
		}
		d.editor = invoice.NewEditor(s.words, editorOpts...)
	}
	d.expiresAt = s.opts.Now().Add(s.opts.TTL)

	s.mu.Lock()
	s.drafts[d.id] = d
	n := len(s.drafts)
	s.mu.Unlock()
	s.opts.Metrics.SetDraftsActive(n)

	log.Debug().Str("draft_id", d.id).Str("invoice_no", d.header.InvoiceNo).Msg("draft opened")
	return d.response(), nil
}

func (s *draftService) Get(_ context.Context, id string) (*dto.DraftResponse, error) {
	return s.with(id, func(d *draft) error { return nil })
}

func (s *draftService) Discard(_ context.Context, id string) error {
	d, ok := s.take(id)
	if !ok {
		return ErrDraftNotFound
	}
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.editor.Close()
	return nil
}

// ── Editing ──────────────────────────────────────────────────────────────────

func (s *draftService) UpdateHeader(_ context.Context, id string, header invoice.Header) (*dto.DraftResponse, error) {
	return s.with(id, func(d *draft) error {
		d.header = header
		return nil
	})
}

func (s *draftService) AddItem(ctx context.Context, id string, predefinedItemID *uuid.UUID) (*dto.DraftResponse, error) {
	var tpl *invoice.PredefinedItem
	if predefinedItemID != nil {
		t, err := s.catalog.Template(ctx, *predefinedItemID)
		if err != nil {
			return nil, err
		}
		tpl = t
	}
	return s.with(id, func(d *draft) error {
		d.editor.AddItem(tpl)
		return nil
	})
}

func (s *draftService) UpdateItem(_ context.Context, id string, itemID int64, field invoice.Field, value string) (*dto.DraftResponse, error) {
	return s.with(id, func(d *draft) error {
		return d.editor.UpdateItemField(itemID, field, value)
	})
}

func (s *draftService) RemoveItem(_ context.Context, id string, itemID int64) (*dto.DraftResponse, error) {
	return s.with(id, func(d *draft) error {
		return d.editor.RemoveItem(itemID)
	})
}

// ── Submit ───────────────────────────────────────────────────────────────────

func (s *draftService) Submit(ctx context.Context, id string) (*dto.BillResponse, error) {
	d, ok := s.lookup(id)
	if !ok {
		return nil, ErrDraftNotFound
	}
	bill, err := s.save(ctx, d)
	if err != nil {
		return nil, err
	}

	s.take(id)
	d.editor.Close()
	log.Info().Str("draft_id", id).Str("invoice_no", bill.InvoiceNo).Msg("draft submitted")
	return bill, nil
}

// save holds d.mu across the write and closes the draft on success, so a
// concurrent submit of the same draft waits and then finds it closed.
func (s *draftService) save(ctx context.Context, d *draft) (*dto.BillResponse, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDraftNotFound
	}
	if err := d.editor.Wait(ctx); err != nil {
		return nil, err
	}
	sub, err := d.editor.PrepareForSubmission(d.header)
	if err != nil {
		d.touch(s.opts.Now(), s.opts.TTL)
		return nil, err
	}

	var bill *dto.BillResponse
	if d.billID != nil {
		bill, err = s.bills.Update(ctx, *d.billID, *sub)
	} else {
		bill, err = s.bills.Create(ctx, d.createdBy, *sub)
	}
	if err != nil {
		d.touch(s.opts.Now(), s.opts.TTL)
		return nil, err
	}
	d.closed = true
	return bill, nil
}

// ── Expiry ───────────────────────────────────────────────────────────────────

func (s *draftService) PurgeExpired() int {
	now := s.opts.Now()
	var expired []*draft

	s.mu.Lock()
	for id, d := range s.drafts {
		d.mu.Lock()
		if now.After(d.expiresAt) {
			expired = append(expired, d)
			delete(s.drafts, id)
		}
		d.mu.Unlock()
	}
	n := len(s.drafts)
	s.mu.Unlock()

	for _, d := range expired {
		d.editor.Close()
	}
	s.opts.Metrics.SetDraftsActive(n)
	if len(expired) > 0 {
		log.Debug().Int("purged", len(expired)).Int("remaining", n).Msg("expired drafts purged")
	}
	return len(expired)
}

// StartJanitor purges expired drafts every interval until ctx is cancelled.
func (s *draftService) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.PurgeExpired()
			}
		}
	}()
}

// ── helpers ──────────────────────────────────────────────────────────────────

// with runs fn on a live draft under its lock and returns the refreshed view.
func (s *draftService) with(id string, fn func(d *draft) error) (*dto.DraftResponse, error) {
	d, ok := s.lookup(id)
	if !ok {
		return nil, ErrDraftNotFound
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDraftNotFound
	}
	d.touch(s.opts.Now(), s.opts.TTL)
	if err := fn(d); err != nil {
		return nil, err
	}
	return d.response(), nil
}

func (s *draftService) lookup(id string) (*draft, bool) {
	s.mu.RLock()
	d, ok := s.drafts[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	d.mu.Lock()
	expired := s.opts.Now().After(d.expiresAt)
	d.mu.Unlock()
	if expired {
		return nil, false
	}
	return d, true
}

func (s *draftService) take(id string) (*draft, bool) {
	s.mu.Lock()
	d, ok := s.drafts[id]
	delete(s.drafts, id)
	n := len(s.drafts)
	s.mu.Unlock()
	s.opts.Metrics.SetDraftsActive(n)
	return d, ok
}

func (d *draft) touch(now time.Time, ttl time.Duration) {
	d.expiresAt = now.Add(ttl)
}

func (d *draft) response() *dto.DraftResponse {
	snap := d.editor.Snapshot()
	var billID *string
	if d.billID != nil {
		s := d.billID.String()
		billID = &s
	}
	return &dto.DraftResponse{
		ID:           d.id,
		BillID:       billID,
		Header:       d.header,
		Items:        snap.Items,
		Totals:       snap.Totals,
		WordsPending: snap.WordsPending,
		ExpiresAt:    d.expiresAt.UTC().Format(time.RFC3339),
	}
}

func headerFromBill(b *dto.BillResponse) invoice.Header {
	return invoice.Header{
		InvoiceNo:       b.InvoiceNo,
		InvoiceDate:     b.InvoiceDate,
		DueDate:         b.DueDate,
		CustomerName:    b.CustomerName,
		CustomerAddress: b.CustomerAddress,
		CustomerPhone:   b.CustomerPhone,
		CustomerGST:     b.CustomerGST,
		PlaceOfSupply:   b.PlaceOfSupply,
		Transport:       b.Transport,
		VehicleNumber:   b.VehicleNumber,
		PaymentStatus:   b.PaymentStatus,
		PaymentDate:     b.PaymentDate,
		Notes:           b.Notes,
	}
}
