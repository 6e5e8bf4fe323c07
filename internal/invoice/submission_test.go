package invoice_test

import (
	"encoding/json"
	"testing"

	"gstbilling/internal/invoice"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareForSubmission_RequiresCustomerName(t *testing.T) {
	ed := invoice.NewEditorFromItems(nil, []invoice.Item{priced("1", "100")})

	sub, err := ed.PrepareForSubmission(invoice.Header{InvoiceNo: "INV1", CustomerName: "   "})

	assert.Nil(t, sub)
	assert.ErrorIs(t, err, invoice.ErrMissingCustomerName)
	assert.ErrorIs(t, err, invoice.ErrRequiredFields)
}

func TestPrepareForSubmission_RequiresInvoiceNo(t *testing.T) {
	ed := invoice.NewEditor(nil)

	_, err := ed.PrepareForSubmission(invoice.Header{CustomerName: "Sharma Traders"})

	assert.ErrorIs(t, err, invoice.ErrMissingInvoiceNo)
}

func TestPrepareForSubmission_BuildsPayload(t *testing.T) {
	ed := invoice.NewEditorFromItems(&stubWords{}, []invoice.Item{priced("10", "100"), priced("5", "100")})
	require.NoError(t, ed.Wait(waitCtx(t)))

	sub, err := ed.PrepareForSubmission(invoice.Header{
		InvoiceNo:    "INV202401151030",
		InvoiceDate:  "2024-01-15",
		CustomerName: "Sharma Traders",
	})
	require.NoError(t, err)

	assert.Equal(t, invoice.PaymentCredit, sub.PaymentStatus)
	require.Len(t, sub.Items, 2)
	assertDec(t, "1770.00", sub.TotalAmount)
	assert.Equal(t, "words 1770.00", sub.AmountInWords)

	raw, err := json.Marshal(sub)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "INV202401151030", payload["invoice_no"])
	assert.Contains(t, payload, "total_amount")
	items := payload["items"].([]any)
	for _, it := range items {
		assert.NotContains(t, it.(map[string]any), "id")
	}
}

func TestPrepareForSubmission_KeepsExplicitPaymentStatus(t *testing.T) {
	ed := invoice.NewEditor(nil)

	sub, err := ed.PrepareForSubmission(invoice.Header{InvoiceNo: "INV1", CustomerName: "A", PaymentStatus: invoice.PaymentPaid})

	require.NoError(t, err)
	assert.Equal(t, invoice.PaymentPaid, sub.PaymentStatus)
}
