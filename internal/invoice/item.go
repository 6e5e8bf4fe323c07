// Package invoice holds the line-item and totals engine used while a bill is
// being composed: per-line GST math, document aggregation and the editing
// session that keeps both consistent.
package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Field names an editable column of a line item. Values match the JSON keys
// clients send.
type Field string

const (
	FieldName        Field = "name"
	FieldHSN         Field = "hsn"
	FieldQuantity    Field = "qty"
	FieldRate        Field = "rate"
	FieldCGSTPercent Field = "cgst_percent"
	FieldSGSTPercent Field = "sgst_percent"
)

// Numeric reports whether edits to f trigger a recompute.
func (f Field) Numeric() bool {
	switch f {
	case FieldQuantity, FieldRate, FieldCGSTPercent, FieldSGSTPercent:
		return true
	}
	return false
}

// Valid reports whether f is one of the user-editable fields.
func (f Field) Valid() bool {
	return f == FieldName || f == FieldHSN || f.Numeric()
}

// DefaultCGSTPercent and DefaultSGSTPercent seed every blank line.
var (
	DefaultCGSTPercent = decimal.NewFromInt(9)
	DefaultSGSTPercent = decimal.NewFromInt(9)
)

var hundred = decimal.NewFromInt(100)

// Item is a priced invoice line as it is persisted. TaxableValue, CGSTAmount,
// SGSTAmount and Total are derived from the four numeric inputs and are only
// ever written by RecomputeItem.
type Item struct {
	Name         string          `json:"name"`
	HSN          string          `json:"hsn"`
	Quantity     decimal.Decimal `json:"qty"`
	Rate         decimal.Decimal `json:"rate"`
	TaxableValue decimal.Decimal `json:"taxable_value"`
	CGSTPercent  decimal.Decimal `json:"cgst_percent"`
	CGSTAmount   decimal.Decimal `json:"cgst_amount"`
	SGSTPercent  decimal.Decimal `json:"sgst_percent"`
	SGSTAmount   decimal.Decimal `json:"sgst_amount"`
	Total        decimal.Decimal `json:"total"`
}

// LineItem is an Item inside an editing session. ID is local to the session
// and is dropped before the item leaves it.
type LineItem struct {
	ID int64 `json:"id"`
	Item
}

// PredefinedItem is a catalog template used to seed new lines.
type PredefinedItem struct {
	Name        string          `json:"name"`
	HSN         string          `json:"hsn"`
	DefaultRate decimal.Decimal `json:"default_rate"`
	CGSTPercent decimal.Decimal `json:"cgst_percent"`
	SGSTPercent decimal.Decimal `json:"sgst_percent"`
}

// BlankItem returns a zeroed line with the default tax rates.
func BlankItem() Item {
	return Item{
		CGSTPercent: DefaultCGSTPercent,
		SGSTPercent: DefaultSGSTPercent,
	}
}

// ItemFromTemplate copies name, HSN, rate and tax rates from tpl. Quantity
// starts at zero so every derived field stays zero until it is set.
func ItemFromTemplate(tpl PredefinedItem) Item {
	return Item{
		Name:        tpl.Name,
		HSN:         tpl.HSN,
		Rate:        bounded(tpl.DefaultRate),
		CGSTPercent: bounded(tpl.CGSTPercent),
		SGSTPercent: bounded(tpl.SGSTPercent),
	}
}

// Widest number the engine accepts. Anything larger or finer is treated as
// not a number.
const (
	MaxIntegerDigits  = 12
	MaxFractionDigits = 9
)

// InRange reports whether d has at most MaxIntegerDigits integer digits and
// MaxFractionDigits fractional digits. It reads only the coefficient length
// and exponent, so it never expands an exponent like 1e2000000000.
func InRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	return exp >= -MaxFractionDigits && int64(d.NumDigits())+exp <= MaxIntegerDigits
}

// ParseOrZero parses a numeric form value. Empty, non-numeric or out of range
// input yields zero instead of an error.
func ParseOrZero(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !InRange(d) {
		return decimal.Zero
	}
	return d
}

// Round2 rounds half away from zero to two fractional digits.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RecomputeItem refreshes the derived fields of it after trigger changed.
//
//   - qty or rate: taxable value, both tax amounts and total
//   - cgst_percent: CGST amount against the current taxable value, then total
//   - sgst_percent: SGST amount against the current taxable value, then total
//
// Text fields leave the item untouched.
func RecomputeItem(it Item, trigger Field) Item {
	switch trigger {
	case FieldQuantity, FieldRate:
		it.TaxableValue = Round2(it.Quantity.Mul(it.Rate))
		it.CGSTAmount = taxOn(it.TaxableValue, it.CGSTPercent)
		it.SGSTAmount = taxOn(it.TaxableValue, it.SGSTPercent)
	case FieldCGSTPercent:
		it.CGSTAmount = taxOn(it.TaxableValue, it.CGSTPercent)
	case FieldSGSTPercent:
		it.SGSTAmount = taxOn(it.TaxableValue, it.SGSTPercent)
	default:
		return it
	}
	it.Total = it.TaxableValue.Add(it.CGSTAmount).Add(it.SGSTAmount)
	return it
}

// Normalize recomputes every derived field from the inputs. Used on items that
// come from outside a session (persisted bills, API payloads).
func Normalize(it Item) Item {
	it.Quantity = bounded(it.Quantity)
	it.Rate = bounded(it.Rate)
	it.CGSTPercent = bounded(it.CGSTPercent)
	it.SGSTPercent = bounded(it.SGSTPercent)
	return RecomputeItem(it, FieldQuantity)
}

func taxOn(taxable, percent decimal.Decimal) decimal.Decimal {
	return Round2(taxable.Mul(percent).Div(hundred))
}

func bounded(d decimal.Decimal) decimal.Decimal {
	if !InRange(d) || d.IsNegative() {
		return decimal.Zero
	}
	return d
}
