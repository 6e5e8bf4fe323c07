package repository

import (
	"context"

	"gstbilling/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PredefinedItemRepository interface {
	Create(ctx context.Context, p *model.PredefinedItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PredefinedItem, error)
	List(ctx context.Context) ([]model.PredefinedItem, error)
	Update(ctx context.Context, p *model.PredefinedItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type predefinedItemRepo struct{ db *gorm.DB }

func NewPredefinedItemRepository(db *gorm.DB) PredefinedItemRepository {
	return &predefinedItemRepo{db: db}
}

func (r *predefinedItemRepo) Create(ctx context.Context, p *model.PredefinedItem) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *predefinedItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PredefinedItem, error) {
	var p model.PredefinedItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *predefinedItemRepo) List(ctx context.Context) ([]model.PredefinedItem, error) {
	var items []model.PredefinedItem
	err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *predefinedItemRepo) Update(ctx context.Context, p *model.PredefinedItem) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *predefinedItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.PredefinedItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
