package repository

import (
	"context"

	"github.com/pepsfoods/checkout-backend/internal/model"
	"gorm.io/gorm"
)

type PointsRepository interface {
	GetProfile(ctx context.Context, uid string) (*model.Profile, error)
	DeductBalance(ctx context.Context, uid string, points int64) error
	AddBalance(ctx context.Context, uid string, points int64) error
	AppendEntry(ctx context.Context, entry *model.PointsEntry) error
	ListEntries(ctx context.Context, uid string, limit int) ([]model.PointsEntry, error)
}

type pointsRepository struct {
	db *gorm.DB
}

func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) GetProfile(ctx context.Context, uid string) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		FirstOrCreate(&profile, &model.Profile{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// DeductBalance is an atomic decrement with a floor check; a concurrent
// spend can never push the balance negative. Returns gorm.ErrRecordNotFound
// when the balance does not cover the amount.
func (r *pointsRepository) DeductBalance(ctx context.Context, uid string, points int64) error {
	if points <= 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("uid = ? AND points_balance >= ?", uid, points).
		Update("points_balance", gorm.Expr("points_balance - ?", points))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *pointsRepository) AddBalance(ctx context.Context, uid string, points int64) error {
	if points <= 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&model.Profile{}).
		Where("uid = ?", uid).
		Update("points_balance", gorm.Expr("points_balance + ?", points))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *pointsRepository) AppendEntry(ctx context.Context, entry *model.PointsEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *pointsRepository) ListEntries(ctx context.Context, uid string, limit int) ([]model.PointsEntry, error) {
	var entries []model.PointsEntry
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", uid).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
