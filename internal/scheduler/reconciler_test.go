package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/stretchr/testify/mock"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *model.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) CreateItems(ctx context.Context, items []model.OrderItem) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

func (m *mockOrderRepo) FindByID(ctx context.Context, id uint64) (*model.Order, error) {
	args := m.Called(ctx, id)
	if o := args.Get(0); o != nil {
		return o.(*model.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderRepo) FindItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if items := args.Get(0); items != nil {
		return items.([]model.OrderItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, uid string) ([]model.Order, error) {
	args := m.Called(ctx, uid)
	if orders := args.Get(0); orders != nil {
		return orders.([]model.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderRepo) MarkPaidIfPending(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) CancelIfPending(ctx context.Context, id uint64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockOrderRepo) ListStalePendingWithoutPayment(ctx context.Context, olderThan time.Time) ([]model.Order, error) {
	args := m.Called(ctx, olderThan)
	if orders := args.Get(0); orders != nil {
		return orders.([]model.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPointsService struct {
	mock.Mock
}

func (m *mockPointsService) Balance(ctx context.Context, uid string) (int64, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPointsService) History(ctx context.Context, uid string, limit int) ([]model.PointsEntry, error) {
	args := m.Called(ctx, uid, limit)
	if entries := args.Get(0); entries != nil {
		return entries.([]model.PointsEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPointsService) Debit(ctx context.Context, uid string, points int64, orderID uint64) error {
	args := m.Called(ctx, uid, points, orderID)
	return args.Error(0)
}

func (m *mockPointsService) Refund(ctx context.Context, uid string, points int64, orderID uint64) error {
	args := m.Called(ctx, uid, points, orderID)
	return args.Error(0)
}

func newSweepFixture(stale []model.Order) (*Reconciler, *mockOrderRepo, *mockPointsService) {
	orders := new(mockOrderRepo)
	points := new(mockPointsService)
	orders.On("ListStalePendingWithoutPayment", mock.Anything, mock.AnythingOfType("time.Time")).
		Return(stale, nil)
	r := NewReconciler(orders, points, 30*time.Minute, logger.NewNop())
	return r, orders, points
}

func TestSweepCancelsAndRefundsStaleOrder(t *testing.T) {
	r, orders, points := newSweepFixture([]model.Order{
		{ID: 7, UserUID: "uid-1", PepsAmount: 2000, CreatedAt: time.Now().Add(-time.Hour)},
	})
	orders.On("CancelIfPending", mock.Anything, uint64(7)).Return(true, nil)
	points.On("Refund", mock.Anything, "uid-1", int64(2000), uint64(7)).Return(nil)

	r.sweep()

	orders.AssertExpectations(t)
	points.AssertExpectations(t)
}

// When the cancel races a late confirmation the conditional update reports
// zero rows, and no refund may follow.
func TestSweepSkipsRefundWhenCancelRaced(t *testing.T) {
	r, orders, points := newSweepFixture([]model.Order{
		{ID: 8, UserUID: "uid-1", PepsAmount: 2000, CreatedAt: time.Now().Add(-time.Hour)},
	})
	orders.On("CancelIfPending", mock.Anything, uint64(8)).Return(false, nil)

	r.sweep()

	points.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepSkipsPointsServiceForCashOnlyOrder(t *testing.T) {
	r, orders, points := newSweepFixture([]model.Order{
		{ID: 9, UserUID: "uid-1", PepsAmount: 0, CreatedAt: time.Now().Add(-time.Hour)},
	})
	orders.On("CancelIfPending", mock.Anything, uint64(9)).Return(true, nil)

	r.sweep()

	points.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// One bad order must not stop the rest of the sweep.
func TestSweepContinuesPastFailures(t *testing.T) {
	r, orders, points := newSweepFixture([]model.Order{
		{ID: 10, UserUID: "uid-1", PepsAmount: 500, CreatedAt: time.Now().Add(-time.Hour)},
		{ID: 11, UserUID: "uid-2", PepsAmount: 1500, CreatedAt: time.Now().Add(-time.Hour)},
	})
	orders.On("CancelIfPending", mock.Anything, uint64(10)).Return(false, errors.New("deadlock detected"))
	orders.On("CancelIfPending", mock.Anything, uint64(11)).Return(true, nil)
	points.On("Refund", mock.Anything, "uid-2", int64(1500), uint64(11)).Return(nil)

	r.sweep()

	orders.AssertExpectations(t)
	points.AssertExpectations(t)
}
