package repository

import (
	"context"
	"time"

	"github.com/pepsfoods/checkout-backend/internal/model"
	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateItems(ctx context.Context, items []model.OrderItem) error
	FindByID(ctx context.Context, id uint64) (*model.Order, error)
	FindItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error)
	ListByUser(ctx context.Context, uid string) ([]model.Order, error)
	// MarkPaidIfPending moves pending/pending to confirmed/paid. Safe to
	// call twice; the second call affects zero rows and reports it.
	MarkPaidIfPending(ctx context.Context, id uint64) (bool, error)
	// CancelIfPending is the compensating action for a failed settlement.
	CancelIfPending(ctx context.Context, id uint64) (bool, error)
	ListStalePendingWithoutPayment(ctx context.Context, olderThan time.Time) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) CreateItems(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, uid string) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", uid).
		Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) MarkPaidIfPending(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ? AND payment_status = ?", id, model.OrderStatusPending, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         model.OrderStatusConfirmed,
			"payment_status": model.PaymentStatusPaid,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepository) CancelIfPending(ctx context.Context, id uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ? AND status = ?", id, model.OrderStatusPending).
		Update("status", model.OrderStatusCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepository) ListStalePendingWithoutPayment(ctx context.Context, olderThan time.Time) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).
		Where("status = ? AND payment_status = ? AND created_at < ?", model.OrderStatusPending, model.PaymentStatusPending, olderThan).
		Where("id NOT IN (?)", r.db.Model(&model.Payment{}).Select("order_id")).
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
