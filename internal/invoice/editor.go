package invoice

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound = errors.New("line item not found")
	ErrLastItem     = errors.New("an invoice must keep at least one item")
	ErrUnknownField = errors.New("unknown item field")
)

// WordsConverter renders an amount as text, e.g. "One Thousand One Hundred
// and Eighty Rupees Only".
type WordsConverter interface {
	AmountInWords(ctx context.Context, amount decimal.Decimal) (string, error)
}

const defaultWordsTimeout = 10 * time.Second

// Option configures an Editor.
type Option func(*Editor)

// WithWordsTimeout bounds each words request.
func WithWordsTimeout(d time.Duration) Option {
	return func(e *Editor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// OnTotals registers fn to receive every published DocumentTotals, including
// the late update that carries amount_in_words. fn runs outside the editor
// lock and may call back into the editor.
func OnTotals(fn func(DocumentTotals)) Option {
	return func(e *Editor) { e.publish = fn }
}

// Snapshot is a consistent copy of an editor's state.
type Snapshot struct {
	Items        []LineItem     `json:"items"`
	Totals       DocumentTotals `json:"totals"`
	WordsPending bool           `json:"words_pending"`
}

// Editor owns the line items of one invoice being composed and keeps the
// document totals in step with them.
//
// Item edits and numeric aggregation are synchronous. The amount in words is
// fetched in the background; every recompute bumps a sequence number and
// cancels the previous request, and a response is applied only when its
// sequence number is still the latest.
type Editor struct {
	mu      sync.Mutex
	words   WordsConverter
	timeout time.Duration
	publish func(DocumentTotals)

	items  []LineItem
	nextID int64
	totals DocumentTotals

	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEditor starts a new document with a single blank line.
func NewEditor(words WordsConverter, opts ...Option) *Editor {
	return NewEditorFromItems(words, nil, opts...)
}

// NewEditorFromItems starts an editing session over persisted items. Each
// item is normalised and receives a fresh session id. An empty slice yields a
// single blank line.
func NewEditorFromItems(words WordsConverter, items []Item, opts ...Option) *Editor {
	e := &Editor{words: words, timeout: defaultWordsTimeout}
	for _, opt := range opts {
		opt(e)
	}
	if len(items) == 0 {
		e.appendLocked(BlankItem())
	}
	for _, it := range items {
		e.appendLocked(Normalize(it))
	}
	e.RecomputeDocumentTotals()
	return e
}

// AddItem appends a line at the end of the document. With a nil template the
// line is blank with the default tax rates.
func (e *Editor) AddItem(tpl *PredefinedItem) LineItem {
	it := BlankItem()
	if tpl != nil {
		it = ItemFromTemplate(*tpl)
	}

	e.mu.Lock()
	li := e.appendLocked(it)
	t := e.recomputeLocked()
	e.mu.Unlock()

	e.emit(t)
	return li
}

// RemoveItem deletes the line with the given id. The last remaining line can
// not be removed.
func (e *Editor) RemoveItem(id int64) error {
	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return ErrItemNotFound
	}
	if len(e.items) <= 1 {
		e.mu.Unlock()
		return ErrLastItem
	}
	e.items = append(e.items[:idx], e.items[idx+1:]...)
	t := e.recomputeLocked()
	e.mu.Unlock()

	e.emit(t)
	return nil
}

// UpdateItemField sets one editable field of a line from its form value.
// Numeric fields are parsed with ParseOrZero, negatives clamp to zero, and the
// line and document totals are recomputed before returning.
func (e *Editor) UpdateItemField(id int64, field Field, value string) error {
	if !field.Valid() {
		return ErrUnknownField
	}

	e.mu.Lock()
	idx := e.indexLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return ErrItemNotFound
	}

	it := e.items[idx].Item
	switch field {
	case FieldName:
		it.Name = value
	case FieldHSN:
		it.HSN = value
	case FieldQuantity:
		it.Quantity = bounded(ParseOrZero(value))
	case FieldRate:
		it.Rate = bounded(ParseOrZero(value))
	case FieldCGSTPercent:
		it.CGSTPercent = bounded(ParseOrZero(value))
	case FieldSGSTPercent:
		it.SGSTPercent = bounded(ParseOrZero(value))
	}

	if !field.Numeric() {
		e.items[idx].Item = it
		e.mu.Unlock()
		return nil
	}

	e.items[idx].Item = RecomputeItem(it, field)
	t := e.recomputeLocked()
	e.mu.Unlock()

	e.emit(t)
	return nil
}

// RecomputeDocumentTotals re-aggregates the document and triggers a fresh
// amount-in-words request. It never fails; a conversion error surfaces as
// WordsErrorText in the published totals.
func (e *Editor) RecomputeDocumentTotals() {
	e.mu.Lock()
	t := e.recomputeLocked()
	e.mu.Unlock()
	e.emit(t)
}

// Items returns a copy of the current lines.
func (e *Editor) Items() []LineItem {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]LineItem(nil), e.items...)
}

// Totals returns the current document totals.
func (e *Editor) Totals() DocumentTotals {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totals
}

// Snapshot returns lines and totals taken under the same lock.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Items:        append([]LineItem(nil), e.items...),
		Totals:       e.totals,
		WordsPending: e.pendingLocked(),
	}
}

// Wait blocks until the latest words request has been applied or ctx ends.
func (e *Editor) Wait(ctx context.Context) error {
	for {
		e.mu.Lock()
		done := e.done
		e.mu.Unlock()
		if done == nil {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		e.mu.Lock()
		settled := e.done == done
		e.mu.Unlock()
		if settled {
			return nil
		}
	}
}

// Close cancels any in-flight words request.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}

func (e *Editor) appendLocked(it Item) LineItem {
	e.nextID++
	li := LineItem{ID: e.nextID, Item: it}
	e.items = append(e.items, li)
	return li
}

func (e *Editor) indexLocked(id int64) int {
	for i := range e.items {
		if e.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Editor) plainItemsLocked() []Item {
	out := make([]Item, len(e.items))
	for i, li := range e.items {
		out[i] = li.Item
	}
	return out
}

func (e *Editor) pendingLocked() bool {
	if e.done == nil {
		return false
	}
	select {
	case <-e.done:
		return false
	default:
		return true
	}
}

func (e *Editor) recomputeLocked() DocumentTotals {
	e.totals = AggregateTotals(e.plainItemsLocked())

	e.seq++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.done = nil

	if e.words != nil && e.totals.TotalAmount.IsPositive() {
		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		done := make(chan struct{})
		e.cancel = cancel
		e.done = done
		go e.resolveWords(ctx, cancel, e.seq, e.totals.TotalAmount, done)
	}
	return e.totals
}

func (e *Editor) resolveWords(ctx context.Context, cancel context.CancelFunc, seq uint64, amount decimal.Decimal, done chan struct{}) {
	defer close(done)
	defer cancel()

	words, err := e.words.AmountInWords(ctx, amount)

	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		log.Debug().Uint64("seq", seq).Str("amount", amount.StringFixed(2)).Msg("invoice: discarding superseded words response")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("amount", amount.StringFixed(2)).Msg("invoice: amount in words failed")
		words = WordsErrorText
	}
	e.totals.AmountInWords = words
	e.cancel = nil
	t := e.totals
	e.mu.Unlock()

	e.emit(t)
}

func (e *Editor) emit(t DocumentTotals) {
	if e.publish != nil {
		e.publish(t)
	}
}
