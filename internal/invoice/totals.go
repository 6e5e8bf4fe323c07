package invoice

import "github.com/shopspring/decimal"

// WordsErrorText replaces amount_in_words when the conversion service fails.
const WordsErrorText = "Amount calculation error"

// DocumentTotals aggregates the current lines of a document. The numeric
// fields are always exact sums; AmountInWords may lag behind them while a
// conversion is in flight.
type DocumentTotals struct {
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	CGSTAmount    decimal.Decimal `json:"cgst_amount"`
	SGSTAmount    decimal.Decimal `json:"sgst_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountInWords string          `json:"amount_in_words"`
}

// AggregateTotals sums items. AmountInWords is left empty.
func AggregateTotals(items []Item) DocumentTotals {
	var t DocumentTotals
	for _, it := range items {
		t.TaxableAmount = t.TaxableAmount.Add(it.TaxableValue)
		t.CGSTAmount = t.CGSTAmount.Add(it.CGSTAmount)
		t.SGSTAmount = t.SGSTAmount.Add(it.SGSTAmount)
	}
	t.TotalAmount = t.TaxableAmount.Add(t.CGSTAmount).Add(t.SGSTAmount)
	return t
}

// SameAmounts reports whether the numeric fields of t and o match.
func (t DocumentTotals) SameAmounts(o DocumentTotals) bool {
	return t.TaxableAmount.Equal(o.TaxableAmount) &&
		t.CGSTAmount.Equal(o.CGSTAmount) &&
		t.SGSTAmount.Equal(o.SGSTAmount) &&
		t.TotalAmount.Equal(o.TotalAmount)
}
