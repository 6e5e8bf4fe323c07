package repository

import (
	"context"
	"strings"
	"time"

	"gstbilling/internal/dto"
	"gstbilling/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BillRepository interface {
	Create(ctx context.Context, tx *gorm.DB, b *model.Bill) error
	// Update saves the header and replaces every item of b.
	Update(ctx context.Context, tx *gorm.DB, b *model.Bill) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error)
	FindByInvoiceNo(ctx context.Context, invoiceNo string) (*model.Bill, error)
	List(ctx context.Context, filter dto.BillFilter) ([]model.Bill, int64, error)
	// ListBetween returns bills without items whose invoice date falls in
	// [from, to]. A nil bound is open.
	ListBetween(ctx context.Context, from, to *time.Time) ([]model.Bill, error)
	ListByStatus(ctx context.Context, status string) ([]model.Bill, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, status string, paidOn *time.Time, notes *string) error
	SetPDFPath(ctx context.Context, id uuid.UUID, path string) error
	Delete(ctx context.Context, id uuid.UUID) error
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type billRepo struct{ db *gorm.DB }

func NewBillRepository(db *gorm.DB) BillRepository { return &billRepo{db: db} }

func (r *billRepo) DB() *gorm.DB { return r.db }

func (r *billRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func orderedItems(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

func (r *billRepo) Create(ctx context.Context, tx *gorm.DB, b *model.Bill) error {
	return r.conn(tx).WithContext(ctx).Create(b).Error
}

func (r *billRepo) Update(ctx context.Context, tx *gorm.DB, b *model.Bill) error {
	db := r.conn(tx).WithContext(ctx)
	if err := db.Where("bill_id = ?", b.ID).Delete(&model.BillItem{}).Error; err != nil {
		return err
	}
	if err := db.Omit(clause.Associations).Save(b).Error; err != nil {
		return err
	}
	if len(b.Items) == 0 {
		return nil
	}
	for i := range b.Items {
		b.Items[i].ID = uuid.Nil
		b.Items[i].BillID = b.ID
	}
	return db.Create(&b.Items).Error
}

func (r *billRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Bill, error) {
	var b model.Bill
	err := r.db.WithContext(ctx).Preload("Items", orderedItems).Where("id = ?", id).First(&b).Error
	return &b, err
}

func (r *billRepo) FindByInvoiceNo(ctx context.Context, invoiceNo string) (*model.Bill, error) {
	var b model.Bill
	err := r.db.WithContext(ctx).Where("invoice_no = ?", invoiceNo).First(&b).Error
	return &b, err
}

func (r *billRepo) List(ctx context.Context, filter dto.BillFilter) ([]model.Bill, int64, error) {
	var bills []model.Bill
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Bill{})

	if term := strings.ToLower(strings.TrimSpace(filter.Q)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(customer_name) LIKE ? OR LOWER(invoice_no) LIKE ?", like, like)
	}
	if filter.PaymentStatus != "" && filter.PaymentStatus != "all" {
		q = q.Where("payment_status = ?", filter.PaymentStatus)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items", orderedItems).
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&bills).Error

	return bills, total, err
}

func (r *billRepo) ListBetween(ctx context.Context, from, to *time.Time) ([]model.Bill, error) {
	var bills []model.Bill
	q := r.db.WithContext(ctx).Model(&model.Bill{})
	if from != nil {
		q = q.Where("invoice_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("invoice_date <= ?", *to)
	}
	err := q.Order("invoice_date ASC").Find(&bills).Error
	return bills, err
}

func (r *billRepo) ListByStatus(ctx context.Context, status string) ([]model.Bill, error) {
	var bills []model.Bill
	err := r.db.WithContext(ctx).
		Where("payment_status = ?", status).
		Order("invoice_date ASC").
		Find(&bills).Error
	return bills, err
}

func (r *billRepo) UpdatePayment(ctx context.Context, id uuid.UUID, status string, paidOn *time.Time, notes *string) error {
	updates := map[string]interface{}{
		"payment_status": status,
		"payment_date":   paidOn,
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	res := r.db.WithContext(ctx).Model(&model.Bill{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *billRepo) SetPDFPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.Bill{}).Where("id = ?", id).Update("pdf_path", path).Error
}

func (r *billRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bill_id = ?", id).Delete(&model.BillItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Bill{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
