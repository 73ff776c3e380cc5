package repository

import (
	"context"

	"github.com/pepsfoods/checkout-backend/internal/model"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	FindByReference(ctx context.Context, reference string) (*model.Payment, error)
	FindByOrderID(ctx context.Context, orderID uint64) (*model.Payment, error)
	// MarkCompletedIfPending / MarkFailedIfPending transition only a pending
	// record; replayed callbacks become no-ops.
	MarkCompletedIfPending(ctx context.Context, reference string) (bool, error)
	MarkFailedIfPending(ctx context.Context, reference string) (bool, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepository) FindByReference(ctx context.Context, reference string) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) FindByOrderID(ctx context.Context, orderID uint64) (*model.Payment, error) {
	var payment model.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) MarkCompletedIfPending(ctx context.Context, reference string) (bool, error) {
	return r.transition(ctx, reference, model.PaymentRecordCompleted)
}

func (r *paymentRepository) MarkFailedIfPending(ctx context.Context, reference string) (bool, error) {
	return r.transition(ctx, reference, model.PaymentRecordFailed)
}

func (r *paymentRepository) transition(ctx context.Context, reference string, to model.PaymentRecordStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("reference = ? AND status = ?", reference, model.PaymentRecordPending).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
