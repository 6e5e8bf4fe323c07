package dto

import "github.com/shopspring/decimal"

// SalesSummaryFilter is bound from query string of GET /v1/analytics/sales-summary.
// Both bounds are inclusive; empty means unbounded.
type SalesSummaryFilter struct {
	StartDate string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date"   validate:"omitempty,datetime=2006-01-02"`
}

type SalesSummaryResponse struct {
	TotalSales   decimal.Decimal `json:"total_sales"`
	TotalBills   int             `json:"total_bills"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	PaidBills    int             `json:"paid_bills"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	CreditBills  int             `json:"credit_bills"`
}

type DueBill struct {
	ID            string          `json:"id"`
	InvoiceNo     string          `json:"invoice_no"`
	InvoiceDate   string          `json:"invoice_date"`
	DueDate       *string         `json:"due_date"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	DaysOverdue   int             `json:"days_overdue"`
}

type CustomerDue struct {
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	BillCount     int             `json:"bill_count"`
	TotalDue      decimal.Decimal `json:"total_due"`
}

type DueBillsResponse struct {
	DueBills          []DueBill       `json:"due_bills"`
	TotalDueAmount    decimal.Decimal `json:"total_due_amount"`
	OverdueBillsCount int             `json:"overdue_bills_count"`
	CustomerSummary   []CustomerDue   `json:"customer_summary"`
}

// MonthlySales is one row of GET /v1/analytics/monthly-sales. Month is YYYY-MM.
type MonthlySales struct {
	Month        string          `json:"month"`
	BillCount    int             `json:"bill_count"`
	TotalSales   decimal.Decimal `json:"total_sales"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
}
