package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gstbilling/internal/dto"
	"gstbilling/internal/invoice"
	"gstbilling/internal/model"
	"gstbilling/internal/repository"

	"github.com/shopspring/decimal"
)

type AnalyticsService interface {
	SalesSummary(ctx context.Context, filter dto.SalesSummaryFilter) (*dto.SalesSummaryResponse, error)
	DueBills(ctx context.Context) (*dto.DueBillsResponse, error)
	MonthlySales(ctx context.Context, year int) ([]dto.MonthlySales, error)
}

type analyticsService struct {
	repo repository.BillRepository
	now  func() time.Time
}

func NewAnalyticsService(repo repository.BillRepository, now func() time.Time) AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &analyticsService{repo: repo, now: now}
}

func (s *analyticsService) SalesSummary(ctx context.Context, filter dto.SalesSummaryFilter) (*dto.SalesSummaryResponse, error) {
	from, err := parseOptionalDate(&filter.StartDate)
	if err != nil {
		return nil, err
	}
	to, err := parseOptionalDate(&filter.EndDate)
	if err != nil {
		return nil, err
	}
	bills, err := s.repo.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	resp := &dto.SalesSummaryResponse{}
	for _, b := range bills {
		resp.TotalSales = resp.TotalSales.Add(b.TotalAmount)
		resp.TotalBills++
		if b.PaymentStatus == invoice.PaymentPaid {
			resp.PaidAmount = resp.PaidAmount.Add(b.TotalAmount)
			resp.PaidBills++
		} else {
			resp.CreditAmount = resp.CreditAmount.Add(b.TotalAmount)
			resp.CreditBills++
		}
	}
	return resp, nil
}

// DueBills lists unpaid bills oldest first, with a per-customer roll-up
// sorted by amount due.
func (s *analyticsService) DueBills(ctx context.Context) (*dto.DueBillsResponse, error) {
	bills, err := s.repo.ListByStatus(ctx, invoice.PaymentCredit)
	if err != nil {
		return nil, err
	}
	now := today(s.now())

	resp := &dto.DueBillsResponse{
		DueBills:        make([]dto.DueBill, 0, len(bills)),
		CustomerSummary: []dto.CustomerDue{},
	}
	byCustomer := map[string]*dto.CustomerDue{}
	for _, b := range bills {
		overdue := daysOverdue(b, now)
		if overdue > 0 {
			resp.OverdueBillsCount++
		}
		resp.TotalDueAmount = resp.TotalDueAmount.Add(b.TotalAmount)
		resp.DueBills = append(resp.DueBills, dto.DueBill{
			ID:            b.ID.String(),
			InvoiceNo:     b.InvoiceNo,
			InvoiceDate:   b.InvoiceDate.Format(dateLayout),
			DueDate:       formatOptionalDate(b.DueDate),
			CustomerName:  b.CustomerName,
			CustomerPhone: b.CustomerPhone,
			TotalAmount:   b.TotalAmount,
			DaysOverdue:   overdue,
		})

		key := b.CustomerName + "\x00" + b.CustomerPhone
		c, ok := byCustomer[key]
		if !ok {
			c = &dto.CustomerDue{CustomerName: b.CustomerName, CustomerPhone: b.CustomerPhone}
			byCustomer[key] = c
		}
		c.BillCount++
		c.TotalDue = c.TotalDue.Add(b.TotalAmount)
	}

	for _, c := range byCustomer {
		resp.CustomerSummary = append(resp.CustomerSummary, *c)
	}
	sort.Slice(resp.CustomerSummary, func(i, j int) bool {
		a, b := resp.CustomerSummary[i], resp.CustomerSummary[j]
		if !a.TotalDue.Equal(b.TotalDue) {
			return a.TotalDue.GreaterThan(b.TotalDue)
		}
		return a.CustomerName < b.CustomerName
	})
	return resp, nil
}

func daysOverdue(b model.Bill, today time.Time) int {
	if b.DueDate == nil {
		return 0
	}
	due := time.Date(b.DueDate.Year(), b.DueDate.Month(), b.DueDate.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// MonthlySales returns twelve rows for year, months without bills included.
// A zero year means the current one.
func (s *analyticsService) MonthlySales(ctx context.Context, year int) ([]dto.MonthlySales, error) {
	if year == 0 {
		year = s.now().Year()
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	bills, err := s.repo.ListBetween(ctx, &from, &to)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.MonthlySales, 12)
	for i := range rows {
		rows[i] = dto.MonthlySales{
			Month:        fmt.Sprintf("%04d-%02d", year, i+1),
			TotalSales:   decimal.Zero,
			PaidAmount:   decimal.Zero,
			CreditAmount: decimal.Zero,
		}
	}
	for _, b := range bills {
		r := &rows[int(b.InvoiceDate.Month())-1]
		r.BillCount++
		r.TotalSales = r.TotalSales.Add(b.TotalAmount)
		if b.PaymentStatus == invoice.PaymentPaid {
			r.PaidAmount = r.PaidAmount.Add(b.TotalAmount)
		} else {
			r.CreditAmount = r.CreditAmount.Add(b.TotalAmount)
		}
	}
	return rows, nil
}
