package repository

import (
	"context"

	"github.com/pepsfoods/checkout-backend/internal/model"
	"gorm.io/gorm"
)

type VendorRepository interface {
	FindByIDs(ctx context.Context, ids []uint64) ([]model.Vendor, error)
	FindPickupLocation(ctx context.Context, id uint64) (*model.PickupLocation, error)
	FindAddress(ctx context.Context, id uint64, uid string) (*model.Address, error)
	Create(ctx context.Context, vendor *model.Vendor) error
}

type vendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) VendorRepository {
	return &vendorRepository{db: db}
}

func (r *vendorRepository) FindByIDs(ctx context.Context, ids []uint64) ([]model.Vendor, error) {
	var vendors []model.Vendor
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

func (r *vendorRepository) FindPickupLocation(ctx context.Context, id uint64) (*model.PickupLocation, error) {
	var loc model.PickupLocation
	if err := r.db.WithContext(ctx).First(&loc, id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

// FindAddress scopes by owner so one user cannot ship against another's
// address id.
func (r *vendorRepository) FindAddress(ctx context.Context, id uint64, uid string) (*model.Address, error) {
	var addr model.Address
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_uid = ?", id, uid).
		First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *vendorRepository) Create(ctx context.Context, vendor *model.Vendor) error {
	return r.db.WithContext(ctx).Create(vendor).Error
}
