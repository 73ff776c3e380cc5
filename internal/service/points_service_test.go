package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockPointsRepo struct {
	mock.Mock
}

func (m *mockPointsRepo) GetProfile(ctx context.Context, uid string) (*model.Profile, error) {
	args := m.Called(ctx, uid)
	if p := args.Get(0); p != nil {
		return p.(*model.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockPointsRepo) DeductBalance(ctx context.Context, uid string, points int64) error {
	args := m.Called(ctx, uid, points)
	return args.Error(0)
}

func (m *mockPointsRepo) AddBalance(ctx context.Context, uid string, points int64) error {
	args := m.Called(ctx, uid, points)
	return args.Error(0)
}

func (m *mockPointsRepo) AppendEntry(ctx context.Context, entry *model.PointsEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockPointsRepo) ListEntries(ctx context.Context, uid string, limit int) ([]model.PointsEntry, error) {
	args := m.Called(ctx, uid, limit)
	if entries := args.Get(0); entries != nil {
		return entries.([]model.PointsEntry), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestDebitWritesNegativeLedgerEntry(t *testing.T) {
	repo := new(mockPointsRepo)
	svc := NewPointsService(repo, logger.NewNop())

	repo.On("DeductBalance", mock.Anything, "uid-1", int64(2000)).Return(nil)
	var entry *model.PointsEntry
	repo.On("AppendEntry", mock.Anything, mock.AnythingOfType("*model.PointsEntry")).
		Run(func(args mock.Arguments) { entry = args.Get(1).(*model.PointsEntry) }).
		Return(nil)

	require.NoError(t, svc.Debit(context.Background(), "uid-1", 2000, 42))
	require.NotNil(t, entry)
	assert.Equal(t, int64(-2000), entry.Points)
	assert.Equal(t, model.PointsSpent, entry.TransactionType)
	assert.Equal(t, "order", entry.Source)
	require.NotNil(t, entry.ReferenceID)
	assert.Equal(t, uint64(42), *entry.ReferenceID)
}

func TestDebitInsufficientBalance(t *testing.T) {
	repo := new(mockPointsRepo)
	svc := NewPointsService(repo, logger.NewNop())

	repo.On("DeductBalance", mock.Anything, "uid-1", int64(9999)).Return(gorm.ErrRecordNotFound)

	err := svc.Debit(context.Background(), "uid-1", 9999, 42)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	repo.AssertNotCalled(t, "AppendEntry", mock.Anything, mock.Anything)
}

// The balance decrement is the authoritative write; a failed ledger append
// must not undo the spend.
func TestDebitAuditFailureDoesNotFail(t *testing.T) {
	repo := new(mockPointsRepo)
	svc := NewPointsService(repo, logger.NewNop())

	repo.On("DeductBalance", mock.Anything, "uid-1", int64(500)).Return(nil)
	repo.On("AppendEntry", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	assert.NoError(t, svc.Debit(context.Background(), "uid-1", 500, 42))
}

func TestDebitZeroIsNoop(t *testing.T) {
	repo := new(mockPointsRepo)
	svc := NewPointsService(repo, logger.NewNop())

	require.NoError(t, svc.Debit(context.Background(), "uid-1", 0, 42))
	repo.AssertNotCalled(t, "DeductBalance", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundWritesReversalEntry(t *testing.T) {
	repo := new(mockPointsRepo)
	svc := NewPointsService(repo, logger.NewNop())

	repo.On("AddBalance", mock.Anything, "uid-1", int64(2000)).Return(nil)
	var entry *model.PointsEntry
	repo.On("AppendEntry", mock.Anything, mock.AnythingOfType("*model.PointsEntry")).
		Run(func(args mock.Arguments) { entry = args.Get(1).(*model.PointsEntry) }).
		Return(nil)

	require.NoError(t, svc.Refund(context.Background(), "uid-1", 2000, 42))
	require.NotNil(t, entry)
	assert.Equal(t, int64(2000), entry.Points)
	assert.Equal(t, model.PointsEarned, entry.TransactionType)
	assert.Equal(t, "order_reversal", entry.Source)
}

func TestBalanceReadsProfile(t *testing.T) {
	repo := new(mockPointsRepo)
	svc := NewPointsService(repo, logger.NewNop())

	repo.On("GetProfile", mock.Anything, "uid-1").Return(&model.Profile{UID: "uid-1", PointsBalance: 3500}, nil)

	balance, err := svc.Balance(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3500), balance)
}
