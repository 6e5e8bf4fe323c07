package service

import (
	"context"
	"errors"

	"gstbilling/internal/dto"
	"gstbilling/internal/invoice"
	"gstbilling/internal/model"
	"gstbilling/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrPredefinedItemNotFound = errors.New("Predefined item not found")

type PredefinedItemService interface {
	List(ctx context.Context) ([]dto.PredefinedItemResponse, error)
	Create(ctx context.Context, req dto.PredefinedItemRequest) (*dto.PredefinedItemResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.PredefinedItemRequest) (*dto.PredefinedItemResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Template returns the catalog entry as a line template for the editor.
	Template(ctx context.Context, id uuid.UUID) (*invoice.PredefinedItem, error)
}

type predefinedItemService struct {
	repo repository.PredefinedItemRepository
}

func NewPredefinedItemService(repo repository.PredefinedItemRepository) PredefinedItemService {
	return &predefinedItemService{repo: repo}
}

func (s *predefinedItemService) List(ctx context.Context) ([]dto.PredefinedItemResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PredefinedItemResponse, len(items))
	for i := range items {
		resp[i] = toPredefinedItemResponse(&items[i])
	}
	return resp, nil
}

func (s *predefinedItemService) Create(ctx context.Context, req dto.PredefinedItemRequest) (*dto.PredefinedItemResponse, error) {
	p := &model.PredefinedItem{}
	applyPredefinedItem(p, req)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	resp := toPredefinedItemResponse(p)
	return &resp, nil
}

func (s *predefinedItemService) Update(ctx context.Context, id uuid.UUID, req dto.PredefinedItemRequest) (*dto.PredefinedItemResponse, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	applyPredefinedItem(p, req)
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	resp := toPredefinedItemResponse(p)
	return &resp, nil
}

func (s *predefinedItemService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPredefinedItemNotFound
	}
	return err
}

func (s *predefinedItemService) Template(ctx context.Context, id uuid.UUID) (*invoice.PredefinedItem, error) {
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &invoice.PredefinedItem{
		Name:        p.Name,
		HSN:         p.HSN,
		DefaultRate: p.DefaultRate,
		CGSTPercent: p.CGSTPercent,
		SGSTPercent: p.SGSTPercent,
	}, nil
}

func (s *predefinedItemService) find(ctx context.Context, id uuid.UUID) (*model.PredefinedItem, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPredefinedItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func applyPredefinedItem(p *model.PredefinedItem, req dto.PredefinedItemRequest) {
	p.Name = req.Name
	p.HSN = req.HSN
	p.DefaultRate = req.DefaultRate
	p.CGSTPercent = invoice.DefaultCGSTPercent
	if req.CGSTPercent != nil {
		p.CGSTPercent = *req.CGSTPercent
	}
	p.SGSTPercent = invoice.DefaultSGSTPercent
	if req.SGSTPercent != nil {
		p.SGSTPercent = *req.SGSTPercent
	}
}

func toPredefinedItemResponse(p *model.PredefinedItem) dto.PredefinedItemResponse {
	return dto.PredefinedItemResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		HSN:         p.HSN,
		DefaultRate: p.DefaultRate,
		CGSTPercent: p.CGSTPercent,
		SGSTPercent: p.SGSTPercent,
	}
}
