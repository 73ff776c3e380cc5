package service

import (
	"context"
	"errors"

	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/internal/repository"
	"gorm.io/gorm"
)

// OrderWithItems is an order plus its lines, for detail views.
type OrderWithItems struct {
	Order *model.Order
	Items []model.OrderItem
}

type OrderService interface {
	ListMine(ctx context.Context, uid string) ([]model.Order, error)
	Get(ctx context.Context, id uint64, uid string) (*OrderWithItems, error)
}

type orderService struct {
	repo repository.OrderRepository
}

func NewOrderService(repo repository.OrderRepository) OrderService {
	return &orderService{repo: repo}
}

func (s *orderService) ListMine(ctx context.Context, uid string) ([]model.Order, error) {
	return s.repo.ListByUser(ctx, uid)
}

func (s *orderService) Get(ctx context.Context, id uint64, uid string) (*OrderWithItems, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if order.UserUID != uid {
		return nil, ErrForbidden
	}
	items, err := s.repo.FindItems(ctx, id)
	if err != nil {
		return nil, err
	}
	return &OrderWithItems{Order: order, Items: items}, nil
}
