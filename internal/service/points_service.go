package service

import (
	"context"
	"errors"

	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/internal/repository"
	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrInsufficientPoints = errors.New("insufficient points balance")

// ApplyPoints decides how much of a requested PEPS amount can be redeemed
// against an order total and which payment method that implies. Pure.
// The authoritative cap is min(available, order total); the cap lives here,
// not in any input surface.
func ApplyPoints(requested, available int64, orderTotal decimal.Decimal) (int64, model.PaymentMethod) {
	clamped := requested
	if clamped < 0 {
		clamped = 0
	}
	if clamped > available {
		clamped = available
	}
	if decimal.NewFromInt(clamped).GreaterThan(orderTotal) {
		clamped = orderTotal.Floor().IntPart()
	}

	switch {
	case clamped == 0:
		return 0, model.PaymentMethodCash
	case decimal.NewFromInt(clamped).GreaterThanOrEqual(orderTotal):
		return clamped, model.PaymentMethodPoints
	default:
		return clamped, model.PaymentMethodMixed
	}
}

type PointsService interface {
	Balance(ctx context.Context, uid string) (int64, error)
	History(ctx context.Context, uid string, limit int) ([]model.PointsEntry, error)
	Debit(ctx context.Context, uid string, points int64, orderID uint64) error
	Refund(ctx context.Context, uid string, points int64, orderID uint64) error
}

type pointsService struct {
	repo repository.PointsRepository
	log  *logger.Logger
}

func NewPointsService(repo repository.PointsRepository, log *logger.Logger) PointsService {
	return &pointsService{repo: repo, log: log}
}

func (s *pointsService) Balance(ctx context.Context, uid string) (int64, error) {
	profile, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		return 0, err
	}
	return profile.PointsBalance, nil
}

func (s *pointsService) History(ctx context.Context, uid string, limit int) ([]model.PointsEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListEntries(ctx, uid, limit)
}

// Debit spends points against an order. The balance moves first through a
// conditional decrement; the ledger row is a secondary audit write, so a
// failure there is logged but does not undo the spend.
func (s *pointsService) Debit(ctx context.Context, uid string, points int64, orderID uint64) error {
	if points <= 0 {
		return nil
	}
	if err := s.repo.DeductBalance(ctx, uid, points); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsufficientPoints
		}
		return err
	}
	entry := &model.PointsEntry{
		UserUID:         uid,
		Points:          -points,
		TransactionType: model.PointsSpent,
		Source:          "order",
		ReferenceID:     &orderID,
	}
	if err := s.repo.AppendEntry(ctx, entry); err != nil {
		s.log.Error("points ledger audit write failed", "uid", uid, "order_id", orderID, "points", points, "error", err)
	}
	return nil
}

// Refund is the compensating inverse of Debit.
func (s *pointsService) Refund(ctx context.Context, uid string, points int64, orderID uint64) error {
	if points <= 0 {
		return nil
	}
	if err := s.repo.AddBalance(ctx, uid, points); err != nil {
		return err
	}
	entry := &model.PointsEntry{
		UserUID:         uid,
		Points:          points,
		TransactionType: model.PointsEarned,
		Source:          "order_reversal",
		ReferenceID:     &orderID,
	}
	if err := s.repo.AppendEntry(ctx, entry); err != nil {
		s.log.Error("points ledger audit write failed", "uid", uid, "order_id", orderID, "points", points, "error", err)
	}
	return nil
}
