package invoice_test

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"gstbilling/internal/invoice"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── fakes ────────────────────────────────────────────────────────────────────

type stubWords struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (s *stubWords) AmountInWords(_ context.Context, amount decimal.Decimal) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, amount.StringFixed(2))
	if s.err != nil {
		return "", s.err
	}
	return "words " + amount.StringFixed(2), nil
}

func (s *stubWords) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// gatedWords blocks the response for an amount until its gate is closed. It
// ignores cancellation to simulate a response that arrives late anyway.
type gatedWords struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func (g *gatedWords) AmountInWords(_ context.Context, amount decimal.Decimal) (string, error) {
	key := amount.StringFixed(2)
	g.mu.Lock()
	gate := g.gates[key]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return "words " + key, nil
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func firstID(t *testing.T, ed *invoice.Editor) int64 {
	t.Helper()
	items := ed.Items()
	require.NotEmpty(t, items)
	return items[0].ID
}

// ── construction / add / remove ──────────────────────────────────────────────

func TestNewEditor_StartsWithBlankLine(t *testing.T) {
	ed := invoice.NewEditor(nil)

	items := ed.Items()
	require.Len(t, items, 1)
	assertDec(t, "9.00", items[0].CGSTPercent)
	assertDec(t, "9.00", items[0].SGSTPercent)
	assertDec(t, "0.00", items[0].Total)
	assertDec(t, "0.00", ed.Totals().TotalAmount)
	assert.Empty(t, ed.Totals().AmountInWords)
}

func TestNewEditorFromItems_NormalizesAndAssignsIDs(t *testing.T) {
	stale := invoice.BlankItem()
	stale.Quantity = dec("2")
	stale.Rate = dec("50")
	stale.Total = dec("1") // wrong on purpose

	ed := invoice.NewEditorFromItems(nil, []invoice.Item{stale, priced("1", "10")})

	items := ed.Items()
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].ID, items[1].ID)
	assertDec(t, "118.00", items[0].Total)
	assertDec(t, "129.80", ed.Totals().TotalAmount)
}

func TestAddItem_AppendsUniqueIDs(t *testing.T) {
	ed := invoice.NewEditor(nil)
	seen := map[int64]bool{firstID(t, ed): true}

	for i := 0; i < 5; i++ {
		li := ed.AddItem(nil)
		assert.False(t, seen[li.ID], "duplicate id %d", li.ID)
		seen[li.ID] = true
	}
	items := ed.Items()
	require.Len(t, items, 6)
	assert.Equal(t, items[5].ID, items[len(items)-1].ID)
}

func TestAddItem_FromTemplate(t *testing.T) {
	ed := invoice.NewEditor(nil)
	tpl := &invoice.PredefinedItem{Name: "Cement 50kg", HSN: "2523", DefaultRate: dec("380"), CGSTPercent: dec("14"), SGSTPercent: dec("14")}

	li := ed.AddItem(tpl)

	assert.Equal(t, "Cement 50kg", li.Name)
	assertDec(t, "380.00", li.Rate)
	assertDec(t, "14.00", li.CGSTPercent)
	assertDec(t, "0.00", li.Total)

	require.NoError(t, ed.UpdateItemField(li.ID, invoice.FieldQuantity, "2"))
	assertDec(t, "972.80", ed.Totals().TotalAmount)
}

func TestRemoveItem_LastItemIsKept(t *testing.T) {
	ed := invoice.NewEditor(nil)
	id := firstID(t, ed)

	err := ed.RemoveItem(id)

	assert.ErrorIs(t, err, invoice.ErrLastItem)
	assert.Len(t, ed.Items(), 1)
	assert.Equal(t, id, firstID(t, ed))
}

func TestRemoveItem_UpdatesTotals(t *testing.T) {
	ed := invoice.NewEditorFromItems(nil, []invoice.Item{priced("10", "100"), priced("5", "100")})
	assertDec(t, "1770.00", ed.Totals().TotalAmount)

	require.NoError(t, ed.RemoveItem(ed.Items()[1].ID))

	assert.Len(t, ed.Items(), 1)
	assertDec(t, "1180.00", ed.Totals().TotalAmount)
}

func TestRemoveItem_UnknownID(t *testing.T) {
	ed := invoice.NewEditor(nil)
	ed.AddItem(nil)

	assert.ErrorIs(t, ed.RemoveItem(999), invoice.ErrItemNotFound)
	assert.Len(t, ed.Items(), 2)
}

// ── field updates ────────────────────────────────────────────────────────────

func TestUpdateItemField_RecomputesLineAndDocument(t *testing.T) {
	ed := invoice.NewEditor(nil)
	id := firstID(t, ed)

	require.NoError(t, ed.UpdateItemField(id, invoice.FieldQuantity, "10"))
	require.NoError(t, ed.UpdateItemField(id, invoice.FieldRate, "100"))

	li := ed.Items()[0]
	assertDec(t, "1000.00", li.TaxableValue)
	assertDec(t, "90.00", li.CGSTAmount)
	assertDec(t, "90.00", li.SGSTAmount)
	assertDec(t, "1180.00", li.Total)

	tot := ed.Totals()
	assertDec(t, "1000.00", tot.TaxableAmount)
	assertDec(t, "180.00", tot.CGSTAmount.Add(tot.SGSTAmount))
	assertDec(t, "1180.00", tot.TotalAmount)
}

func TestUpdateItemField_NonNumericBecomesZero(t *testing.T) {
	ed := invoice.NewEditor(nil)
	id := firstID(t, ed)
	require.NoError(t, ed.UpdateItemField(id, invoice.FieldRate, "100"))

	require.NoError(t, ed.UpdateItemField(id, invoice.FieldQuantity, "abc"))

	li := ed.Items()[0]
	assertDec(t, "0.00", li.Quantity)
	assertDec(t, "0.00", li.TaxableValue)
	assertDec(t, "0.00", li.Total)
}

func TestUpdateItemField_HugeExponentBecomesZero(t *testing.T) {
	ed := invoice.NewEditor(nil)
	id := firstID(t, ed)
	require.NoError(t, ed.UpdateItemField(id, invoice.FieldQuantity, "10"))

	done := make(chan error, 1)
	go func() { done <- ed.UpdateItemField(id, invoice.FieldRate, "1e2000000000") }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("UpdateItemField did not return")
	}

	li := ed.Items()[0]
	assertDec(t, "0.00", li.Rate)
	assertDec(t, "0.00", li.Total)
	assertDec(t, "0.00", ed.Totals().TotalAmount)
}

func TestUpdateItemField_NegativeClampsToZero(t *testing.T) {
	ed := invoice.NewEditor(nil)
	id := firstID(t, ed)
	require.NoError(t, ed.UpdateItemField(id, invoice.FieldRate, "100"))

	require.NoError(t, ed.UpdateItemField(id, invoice.FieldQuantity, "-3"))

	assertDec(t, "0.00", ed.Items()[0].Quantity)
	assertDec(t, "0.00", ed.Totals().TotalAmount)
}

func TestUpdateItemField_TextFields(t *testing.T) {
	ed := invoice.NewEditor(nil)
	id := firstID(t, ed)

	require.NoError(t, ed.UpdateItemField(id, invoice.FieldName, "Sand"))
	require.NoError(t, ed.UpdateItemField(id, invoice.FieldHSN, "2505"))

	li := ed.Items()[0]
	assert.Equal(t, "Sand", li.Name)
	assert.Equal(t, "2505", li.HSN)
}

func TestUpdateItemField_Errors(t *testing.T) {
	ed := invoice.NewEditor(nil)
	id := firstID(t, ed)

	assert.ErrorIs(t, ed.UpdateItemField(id, invoice.Field("total"), "5"), invoice.ErrUnknownField)
	assert.ErrorIs(t, ed.UpdateItemField(id+100, invoice.FieldRate, "5"), invoice.ErrItemNotFound)
}

// ── amount in words ──────────────────────────────────────────────────────────

func TestWords_AppliedAfterWait(t *testing.T) {
	words := &stubWords{}
	ed := invoice.NewEditor(words)
	id := firstID(t, ed)

	require.NoError(t, ed.UpdateItemField(id, invoice.FieldQuantity, "10"))
	require.NoError(t, ed.UpdateItemField(id, invoice.FieldRate, "100"))
	require.NoError(t, ed.Wait(waitCtx(t)))

	assert.Equal(t, "words 1180.00", ed.Totals().AmountInWords)
	assert.False(t, ed.Snapshot().WordsPending)
}

func TestWords_FailureSetsSentinel(t *testing.T) {
	words := &stubWords{err: errors.New("connection refused")}
	ed := invoice.NewEditorFromItems(words, []invoice.Item{priced("1", "100")})

	require.NoError(t, ed.Wait(waitCtx(t)))

	tot := ed.Totals()
	assert.Equal(t, invoice.WordsErrorText, tot.AmountInWords)
	assertDec(t, "118.00", tot.TotalAmount)
}

func TestWords_ZeroTotalClearsWithoutCall(t *testing.T) {
	words := &stubWords{}
	ed := invoice.NewEditorFromItems(words, []invoice.Item{priced("1", "100")})
	require.NoError(t, ed.Wait(waitCtx(t)))
	require.NotEmpty(t, ed.Totals().AmountInWords)

	require.NoError(t, ed.UpdateItemField(firstID(t, ed), invoice.FieldQuantity, "0"))
	require.NoError(t, ed.Wait(waitCtx(t)))

	assert.Empty(t, ed.Totals().AmountInWords)
	assert.Equal(t, []string{"118.00"}, words.Calls())
}

func TestWords_NilConverterLeavesWordsEmpty(t *testing.T) {
	ed := invoice.NewEditorFromItems(nil, []invoice.Item{priced("1", "100")})
	require.NoError(t, ed.Wait(waitCtx(t)))
	assert.Empty(t, ed.Totals().AmountInWords)
}

func TestWords_SupersededResponseIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	words := &gatedWords{gates: map[string]chan struct{}{"1180.00": gate}}
	ed := invoice.NewEditor(words)
	id := firstID(t, ed)

	require.NoError(t, ed.UpdateItemField(id, invoice.FieldQuantity, "10"))
	require.NoError(t, ed.UpdateItemField(id, invoice.FieldRate, "100")) // 1180, blocked
	require.NoError(t, ed.UpdateItemField(id, invoice.FieldQuantity, "20"))
	require.NoError(t, ed.Wait(waitCtx(t)))
	require.Equal(t, "words 2360.00", ed.Totals().AmountInWords)

	close(gate)

	assert.Never(t, func() bool {
		return ed.Totals().AmountInWords != "words 2360.00"
	}, 150*time.Millisecond, 5*time.Millisecond)
}

func TestWords_PendingWhileInFlight(t *testing.T) {
	gate := make(chan struct{})
	words := &gatedWords{gates: map[string]chan struct{}{"118.00": gate}}
	ed := invoice.NewEditorFromItems(words, []invoice.Item{priced("1", "100")})

	snap := ed.Snapshot()
	assert.True(t, snap.WordsPending)
	assert.Empty(t, snap.Totals.AmountInWords)
	assertDec(t, "118.00", snap.Totals.TotalAmount)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, ed.Wait(ctx), context.DeadlineExceeded)

	close(gate)
	require.NoError(t, ed.Wait(waitCtx(t)))
	assert.Equal(t, "words 118.00", ed.Totals().AmountInWords)
}

func TestOnTotals_ReceivesNumericAndWordsUpdates(t *testing.T) {
	var mu sync.Mutex
	var published []invoice.DocumentTotals
	ed := invoice.NewEditor(&stubWords{}, invoice.OnTotals(func(tot invoice.DocumentTotals) {
		mu.Lock()
		published = append(published, tot)
		mu.Unlock()
	}))

	require.NoError(t, ed.UpdateItemField(firstID(t, ed), invoice.FieldRate, "100"))
	require.NoError(t, ed.UpdateItemField(firstID(t, ed), invoice.FieldQuantity, "1"))
	require.NoError(t, ed.Wait(waitCtx(t)))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, published)
	last := published[len(published)-1]
	assertDec(t, "118.00", last.TotalAmount)
	assert.Equal(t, "words 118.00", last.AmountInWords)
}

// ── invariants under random edits ────────────────────────────────────────────

func TestEditor_InvariantsHoldUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ed := invoice.NewEditor(nil)
	fields := []invoice.Field{invoice.FieldQuantity, invoice.FieldRate, invoice.FieldCGSTPercent, invoice.FieldSGSTPercent, invoice.FieldName}

	for step := 0; step < 300; step++ {
		items := ed.Items()
		switch op := rng.Intn(10); {
		case op == 0:
			ed.AddItem(nil)
		case op == 1:
			_ = ed.RemoveItem(items[rng.Intn(len(items))].ID)
		default:
			id := items[rng.Intn(len(items))].ID
			f := fields[rng.Intn(len(fields))]
			v := strconv.FormatFloat(rng.Float64()*200-20, 'f', rng.Intn(4), 64)
			require.NoError(t, ed.UpdateItemField(id, f, v))
		}

		snap := ed.Snapshot()
		require.NotEmpty(t, snap.Items, "step %d", step)

		ids := map[int64]bool{}
		var lines []invoice.Item
		for _, li := range snap.Items {
			require.False(t, ids[li.ID], "duplicate id at step %d", step)
			ids[li.ID] = true
			require.True(t, li.Total.Equal(li.TaxableValue.Add(li.CGSTAmount).Add(li.SGSTAmount)), "line total at step %d", step)
			lines = append(lines, li.Item)
		}
		want := invoice.AggregateTotals(lines)
		require.True(t, want.SameAmounts(snap.Totals), "document totals at step %d", step)
	}
}
