package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pepsfoods/checkout-backend/internal/gateway"
	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/internal/repository"
	"github.com/pepsfoods/checkout-backend/internal/resilience"
	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var minorUnits = decimal.NewFromInt(100)

// InitializedPayment is what the checkout flow hands back to the browser
// for the hosted-payment redirect.
type InitializedPayment struct {
	AuthorizationURL string
	Reference        string
	ChargeAmount     decimal.Decimal
}

// VerificationResult mirrors the gateway's answer after reconciliation.
type VerificationResult struct {
	Reference string
	Status    string
	Amount    decimal.Decimal
	OrderID   uint64
}

type PaymentService interface {
	// Initialize opens a hosted payment session for the cash remainder and
	// records a pending Payment keyed by the gateway reference.
	Initialize(ctx context.Context, order *model.Order, email string, cashRemainder decimal.Decimal, splits []VendorSplit) (*InitializedPayment, error)
	// Verify reconciles gateway status with the local payment and order
	// records. Idempotent: a second verify of a successful charge changes
	// nothing and never re-runs the points debit.
	Verify(ctx context.Context, reference string) (*VerificationResult, error)
	// ProcessWebhook handles an asynchronous gateway callback for a charge
	// reference, deduplicating replays.
	ProcessWebhook(ctx context.Context, reference string) error
}

type paymentService struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	vendors  repository.VendorRepository
	client   gateway.Client
	redis    *redis.Client
	exec     *resilience.Executor
	log      *logger.Logger
}

func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	vendors repository.VendorRepository,
	client gateway.Client,
	rdb *redis.Client,
	exec *resilience.Executor,
	log *logger.Logger,
) PaymentService {
	return &paymentService{
		payments: payments,
		orders:   orders,
		vendors:  vendors,
		client:   client,
		redis:    rdb,
		exec:     exec,
		log:      log,
	}
}

func (s *paymentService) Initialize(ctx context.Context, order *model.Order, email string, cashRemainder decimal.Decimal, splits []VendorSplit) (*InitializedPayment, error) {
	if !cashRemainder.IsPositive() {
		return nil, errors.New("cash remainder must be positive")
	}

	subaccounts, err := s.subaccountsFor(ctx, splits)
	if err != nil {
		return nil, fmt.Errorf("resolve vendor subaccounts: %w", err)
	}

	splitCfg := GatewaySplitConfig(cashRemainder, splits, subaccounts)
	reference := uuid.New().String()

	res, err := s.client.Initialize(ctx, gateway.InitializeRequest{
		Email:       email,
		AmountMinor: splitCfg.ChargeAmount.Mul(minorUnits).Round(0).IntPart(),
		Reference:   reference,
		Split:       splitCfg,
	})
	if err != nil {
		return nil, err
	}
	if res.Reference != "" {
		reference = res.Reference
	}

	payment := &model.Payment{
		OrderID:     order.ID,
		Reference:   reference,
		Amount:      splitCfg.ChargeAmount,
		SplitConfig: splitCfg,
		Status:      model.PaymentRecordPending,
	}
	if err := s.exec.Do(ctx, "create payment record", resilience.DefaultOptions(), func(ctx context.Context) error {
		return s.payments.Create(ctx, payment)
	}); err != nil {
		return nil, fmt.Errorf("persist payment record: %w", err)
	}

	return &InitializedPayment{
		AuthorizationURL: res.AuthorizationURL,
		Reference:        reference,
		ChargeAmount:     splitCfg.ChargeAmount,
	}, nil
}

func (s *paymentService) Verify(ctx context.Context, reference string) (*VerificationResult, error) {
	payment, err := s.payments.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res, err := s.client.Verify(ctx, reference)
	if err != nil {
		return nil, err
	}

	amount := decimal.NewFromInt(res.AmountMinor).Div(minorUnits)
	result := &VerificationResult{
		Reference: reference,
		Status:    res.Status,
		Amount:    amount,
		OrderID:   payment.OrderID,
	}

	if res.Status != gateway.StatusSuccess {
		changed, err := s.payments.MarkFailedIfPending(ctx, reference)
		if err != nil {
			return nil, err
		}
		if changed {
			s.log.Warn("payment failed at gateway", "reference", reference, "order_id", payment.OrderID, "status", res.Status, "message", res.Message)
		}
		// The order stays pending for manual reconciliation.
		return result, nil
	}

	if _, err := s.payments.MarkCompletedIfPending(ctx, reference); err != nil {
		return nil, err
	}
	confirmed, err := s.orders.MarkPaidIfPending(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}
	if confirmed {
		s.log.Info("order confirmed by payment verification", "reference", reference, "order_id", payment.OrderID, "amount", amount)
	}
	return result, nil
}

func (s *paymentService) ProcessWebhook(ctx context.Context, reference string) error {
	key := "payments:webhook:" + reference
	acquired, err := s.redis.SetNX(ctx, key, "1", 24*time.Hour).Result()
	if err != nil {
		// Dedupe is best effort; the conditional status transitions keep a
		// replay harmless anyway.
		s.log.Warn("webhook dedupe check failed", "reference", reference, "error", err)
	} else if !acquired {
		s.log.Info("webhook replay ignored", "reference", reference)
		return nil
	}

	if _, err := s.Verify(ctx, reference); err != nil {
		// Let the gateway retry the callback.
		if derr := s.redis.Del(ctx, key).Err(); derr != nil {
			s.log.Warn("webhook dedupe release failed", "reference", reference, "error", derr)
		}
		return err
	}
	return nil
}

func (s *paymentService) subaccountsFor(ctx context.Context, splits []VendorSplit) (map[uint64]string, error) {
	ids := make([]uint64, 0, len(splits))
	for _, split := range splits {
		ids = append(ids, split.VendorID)
	}
	vendors, err := resilience.DoValue(ctx, s.exec, "load vendors", resilience.DefaultOptions(), func(ctx context.Context) ([]model.Vendor, error) {
		return s.vendors.FindByIDs(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]string, len(vendors))
	for _, vendor := range vendors {
		out[vendor.ID] = vendor.Subaccount
	}
	// A split the gateway cannot route fails here, before the round-trip.
	for _, split := range splits {
		if out[split.VendorID] == "" {
			return nil, fmt.Errorf("vendor %d has no settlement subaccount", split.VendorID)
		}
	}
	return out, nil
}
