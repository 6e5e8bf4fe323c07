package infra

// pdf.go renders a GST tax invoice on A4 using go-pdf/fpdf:
//   - company header (name, address, GSTIN, contact)
//   - invoice and customer block
//   - line table with HSN, qty, rate, taxable value, CGST and SGST
//   - totals and amount in words
//
// Files are saved to storagePath/<invoice_no>.pdf.

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"gstbilling/internal/config"
	"gstbilling/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// Company is the issuer block printed at the top of every invoice.
type Company struct {
	Name    string
	Address string
	GSTIN   string
	Contact string
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// BillPDFName returns the file name used for a bill's PDF.
func BillPDFName(invoiceNo string) string {
	name := unsafeFileChars.ReplaceAllString(invoiceNo, "_")
	if name == "" {
		name = "invoice"
	}
	return name + ".pdf"
}

// GenerateBillPDF writes the invoice PDF for bill under storagePath (created if
// needed) and returns the file name relative to storagePath.
func GenerateBillPDF(bill *model.Bill, company Company, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := BillPDFName(bill.InvoiceNo)
	f, err := os.Create(filepath.Join(storagePath, fileName))
	if err != nil {
		return "", fmt.Errorf("pdf: create file: %w", err)
	}
	defer f.Close()

	if err := RenderBillPDF(bill, company, f); err != nil {
		return "", err
	}
	return fileName, nil
}

// RenderBillPDF streams the invoice PDF for bill to w.
func RenderBillPDF(bill *model.Bill, company Company, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentW, 8, tr(orDefault(company.Name, "Tax Invoice")), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if company.Address != "" {
		pdf.MultiCell(contentW, 4.5, tr(company.Address), "", "C", false)
	}
	if company.GSTIN != "" {
		pdf.CellFormat(contentW, 5, "GSTIN: "+company.GSTIN, "", 1, "C", false, 0, "")
	}
	if company.Contact != "" {
		pdf.CellFormat(contentW, 5, tr(company.Contact), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, "TAX INVOICE", "TB", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Invoice / customer block ─────────────────────────────────────────────
	half := contentW / 2
	left := []string{
		"Invoice No: " + bill.InvoiceNo,
		"Invoice Date: " + bill.InvoiceDate.Format("02/01/2006"),
	}
	if bill.DueDate != nil {
		left = append(left, "Due Date: "+bill.DueDate.Format("02/01/2006"))
	}
	left = append(left, "Place of Supply: "+bill.PlaceOfSupply)
	if bill.Transport != "" {
		left = append(left, "Transport: "+bill.Transport)
	}
	if bill.VehicleNumber != "" {
		left = append(left, "Vehicle No: "+bill.VehicleNumber)
	}
	right := []string{"Bill To: " + bill.CustomerName}
	if bill.CustomerAddress != "" {
		right = append(right, bill.CustomerAddress)
	}
	if bill.CustomerPhone != "" {
		right = append(right, "Phone: "+bill.CustomerPhone)
	}
	if bill.CustomerGST != "" {
		right = append(right, "GSTIN: "+bill.CustomerGST)
	}

	pdf.SetFont("Helvetica", "", 9)
	rows := max(len(left), len(right))
	for i := 0; i < rows; i++ {
		pdf.CellFormat(half, 5, tr(at(left, i)), "", 0, "L", false, 0, "")
		pdf.CellFormat(half, 5, tr(at(right, i)), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	// ── Items table ──────────────────────────────────────────────────────────
	cols := []struct {
		title string
		w     float64
		align string
	}{
		{"#", 8, "C"},
		{"Description", 44, "L"},
		{"HSN", 16, "C"},
		{"Qty", 14, "R"},
		{"Rate", 18, "R"},
		{"Taxable", 22, "R"},
		{"CGST", 22, "R"},
		{"SGST", 22, "R"},
		{"Total", contentW - 166, "R"},
	}
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(235, 235, 235)
	for _, c := range cols {
		pdf.CellFormat(c.w, 6, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for i, it := range bill.Items {
		name := it.Name
		if len(name) > 30 {
			name = name[:29] + "..."
		}
		cells := []string{
			fmt.Sprintf("%d", i+1),
			name,
			it.HSN,
			it.Quantity.String(),
			it.Rate.StringFixed(2),
			it.TaxableValue.StringFixed(2),
			taxCell(it.CGSTAmount, it.CGSTPercent),
			taxCell(it.SGSTAmount, it.SGSTPercent),
			it.Total.StringFixed(2),
		}
		for j, c := range cols {
			pdf.CellFormat(c.w, 6, tr(cells[j]), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	labelW := contentW - 40
	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Taxable Amount", bill.TaxableAmount},
		{"CGST", bill.CGSTAmount},
		{"SGST", bill.SGSTAmount},
	}
	pdf.SetFont("Helvetica", "", 9)
	for _, t := range totals {
		pdf.CellFormat(labelW, 5, t.label+":", "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 5, "Rs. "+t.value.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(labelW, 7, "Grand Total:", "T", 0, "R", false, 0, "")
	pdf.CellFormat(40, 7, "Rs. "+bill.TotalAmount.StringFixed(2), "T", 1, "R", false, 0, "")

	if bill.AmountInWords != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.MultiCell(contentW, 5, tr("Amount in words: "+bill.AmountInWords), "", "L", false)
	}

	// ── Footer ───────────────────────────────────────────────────────────────
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 8)
	status := "Payment: " + bill.PaymentStatus
	if bill.PaymentDate != nil {
		status += " on " + bill.PaymentDate.Format("02/01/2006")
	}
	pdf.CellFormat(contentW, 5, status, "", 1, "L", false, 0, "")
	if bill.Notes != "" {
		pdf.MultiCell(contentW, 4.5, tr("Notes: "+bill.Notes), "", "L", false)
	}
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, tr("For "+orDefault(company.Name, "the supplier")), "", 1, "R", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Authorised Signatory", "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: render: %w", err)
	}
	return nil
}

func taxCell(amount, percent decimal.Decimal) string {
	return fmt.Sprintf("%s (%s%%)", amount.StringFixed(2), percent.String())
}

func at(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// CompanyFromConfig builds the issuer block from COMPANY_* settings.
func CompanyFromConfig(cfg *config.Config) Company {
	return Company{
		Name:    cfg.CompanyName,
		Address: cfg.CompanyAddress,
		GSTIN:   cfg.CompanyGSTIN,
		Contact: cfg.CompanyContact,
	}
}
