package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/pepsfoods/checkout-backend/internal/delivery"
	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/internal/repository"
	"github.com/pepsfoods/checkout-backend/internal/resilience"
	"github.com/pepsfoods/checkout-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("authenticated user required")
	// ErrInvalidCheckout marks input the buyer can correct; handlers surface
	// its message verbatim. Everything else is an internal failure.
	ErrInvalidCheckout = errors.New("invalid checkout")
)

// Identity is the authenticated caller, resolved by the auth middleware.
type Identity struct {
	UID   string
	Email string
}

// CheckoutInput is the settlement-input value object: the cart snapshot and
// the delivery/points choices, decoupled from any UI state.
type CheckoutInput struct {
	Items               []CartItem
	DeliveryType        model.DeliveryType
	DeliveryAddressID   *uint64
	PickupLocationID    *uint64
	DeliveryFee         decimal.Decimal
	DeliveryFeeAccepted bool
	PointsRequested     int64
}

// CheckoutResult reports where the settlement landed: confirmed outright on
// a full points cover, or awaiting the gateway with a redirect URL.
type CheckoutResult struct {
	Order            *model.Order
	PaymentMethod    model.PaymentMethod
	PointsApplied    int64
	CashRemainder    decimal.Decimal
	Confirmed        bool
	AuthorizationURL string
	PaymentReference string
}

type CheckoutService interface {
	QuoteDeliveryFee(ctx context.Context, user Identity, pickupLocationID, addressID uint64) (decimal.Decimal, error)
	Checkout(ctx context.Context, user Identity, in CheckoutInput) (*CheckoutResult, error)
}

type checkoutService struct {
	orders   repository.OrderRepository
	vendors  repository.VendorRepository
	points   PointsService
	payments PaymentService
	quoter   delivery.Quoter
	exec     *resilience.Executor
	log      *logger.Logger
}

func NewCheckoutService(
	orders repository.OrderRepository,
	vendors repository.VendorRepository,
	points PointsService,
	payments PaymentService,
	quoter delivery.Quoter,
	exec *resilience.Executor,
	log *logger.Logger,
) CheckoutService {
	return &checkoutService{
		orders:   orders,
		vendors:  vendors,
		points:   points,
		payments: payments,
		quoter:   quoter,
		exec:     exec,
		log:      log,
	}
}

func (s *checkoutService) QuoteDeliveryFee(ctx context.Context, user Identity, pickupLocationID, addressID uint64) (decimal.Decimal, error) {
	if user.UID == "" {
		return decimal.Zero, ErrUnauthenticated
	}
	loc, err := resilience.DoValue(ctx, s.exec, "load pickup location", resilience.DefaultOptions(), func(ctx context.Context) (*model.PickupLocation, error) {
		return s.vendors.FindPickupLocation(ctx, pickupLocationID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	addr, err := resilience.DoValue(ctx, s.exec, "load address", resilience.DefaultOptions(), func(ctx context.Context) (*model.Address, error) {
		return s.vendors.FindAddress(ctx, addressID, user.UID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, ErrNotFound
		}
		return decimal.Zero, err
	}
	return s.quoter.Quote(ctx,
		delivery.Point{Lat: loc.Latitude, Lng: loc.Longitude},
		delivery.Point{Lat: addr.Latitude, Lng: addr.Longitude},
	)
}

// Checkout runs the settlement sequence strictly in order: order row, order
// lines, points debit, then the cash-remainder branch. A failure after the
// order row exists triggers the compensating cancel (and points refund when
// the debit already happened) instead of leaving an orphaned pending order.
func (s *checkoutService) Checkout(ctx context.Context, user Identity, in CheckoutInput) (*CheckoutResult, error) {
	if user.UID == "" {
		return nil, ErrUnauthenticated
	}
	subtotal, err := validateInput(in)
	if err != nil {
		return nil, err
	}

	fee := decimal.Zero
	if in.DeliveryType == model.DeliveryTypeDelivery {
		fee = in.DeliveryFee
	}
	total := subtotal.Add(fee)

	available, err := s.points.Balance(ctx, user.UID)
	if err != nil {
		return nil, fmt.Errorf("load points balance: %w", err)
	}
	pointsApplied, method := ApplyPoints(in.PointsRequested, available, total)

	order := &model.Order{
		Reference:         uuid.New().String(),
		UserUID:           user.UID,
		TotalAmount:       total,
		DeliveryType:      in.DeliveryType,
		DeliveryAddressID: in.DeliveryAddressID,
		PickupLocationID:  in.PickupLocationID,
		DeliveryFee:       fee,
		PepsAmount:        pointsApplied,
		PaymentMethod:     method,
		Status:            model.OrderStatusPending,
		PaymentStatus:     model.PaymentStatusPending,
	}
	if err := s.exec.Do(ctx, "create order", resilience.DefaultOptions(), func(ctx context.Context) error {
		return s.orders.Create(ctx, order)
	}); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, model.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			VendorID:  item.VendorID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal(),
		})
	}
	if err := s.exec.Do(ctx, "create order lines", resilience.DefaultOptions(), func(ctx context.Context) error {
		return s.orders.CreateItems(ctx, items)
	}); err != nil {
		s.compensate(ctx, order, 0)
		return nil, fmt.Errorf("create order lines: %w", err)
	}

	if pointsApplied > 0 {
		if err := s.points.Debit(ctx, user.UID, pointsApplied, order.ID); err != nil {
			s.compensate(ctx, order, 0)
			return nil, err
		}
	}

	remainder := total.Sub(decimal.NewFromInt(pointsApplied))
	result := &CheckoutResult{
		Order:         order,
		PaymentMethod: method,
		PointsApplied: pointsApplied,
		CashRemainder: remainder,
	}

	if !remainder.IsPositive() {
		if err := s.exec.Do(ctx, "confirm order", resilience.DefaultOptions(), func(ctx context.Context) error {
			_, err := s.orders.MarkPaidIfPending(ctx, order.ID)
			return err
		}); err != nil {
			s.compensate(ctx, order, pointsApplied)
			return nil, fmt.Errorf("confirm order: %w", err)
		}
		order.Status = model.OrderStatusConfirmed
		order.PaymentStatus = model.PaymentStatusPaid
		result.Confirmed = true
		s.log.Info("order settled with points", "order_id", order.ID, "uid", user.UID, "points", pointsApplied)
		return result, nil
	}

	splits := scaleSplits(SplitByVendor(in.Items), total, remainder)
	payment, err := s.payments.Initialize(ctx, order, user.Email, remainder, splits)
	if err != nil {
		s.compensate(ctx, order, pointsApplied)
		return nil, err
	}
	result.AuthorizationURL = payment.AuthorizationURL
	result.PaymentReference = payment.Reference
	s.log.Info("order awaiting gateway", "order_id", order.ID, "uid", user.UID, "reference", payment.Reference, "charge", payment.ChargeAmount)
	return result, nil
}

// compensate best-effort cancels a pending order and returns any debited
// points. Failures here are logged, not surfaced; the original error is
// what the caller needs to see.
func (s *checkoutService) compensate(ctx context.Context, order *model.Order, debitedPoints int64) {
	if debitedPoints > 0 {
		if err := s.points.Refund(ctx, order.UserUID, debitedPoints, order.ID); err != nil {
			s.log.Error("points refund failed during compensation", "order_id", order.ID, "points", debitedPoints, "error", err)
		}
	}
	if _, err := s.orders.CancelIfPending(ctx, order.ID); err != nil {
		s.log.Error("order cancel failed during compensation", "order_id", order.ID, "error", err)
	}
}

func validateInput(in CheckoutInput) (decimal.Decimal, error) {
	if len(in.Items) == 0 {
		return decimal.Zero, fmt.Errorf("%w: cart is empty", ErrInvalidCheckout)
	}
	subtotal := decimal.Zero
	for _, item := range in.Items {
		if item.Quantity <= 0 {
			return decimal.Zero, fmt.Errorf("%w: invalid quantity for product %d", ErrInvalidCheckout, item.ProductID)
		}
		if item.UnitPrice.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: invalid unit price for product %d", ErrInvalidCheckout, item.ProductID)
		}
		subtotal = subtotal.Add(item.Subtotal())
	}

	switch in.DeliveryType {
	case model.DeliveryTypeDelivery:
		if in.DeliveryAddressID == nil {
			return decimal.Zero, fmt.Errorf("%w: delivery requires an address", ErrInvalidCheckout)
		}
		if in.PickupLocationID != nil {
			return decimal.Zero, fmt.Errorf("%w: delivery and pickup are mutually exclusive", ErrInvalidCheckout)
		}
		if !in.DeliveryFeeAccepted {
			return decimal.Zero, fmt.Errorf("%w: delivery fee must be accepted before checkout", ErrInvalidCheckout)
		}
		if in.DeliveryFee.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: invalid delivery fee", ErrInvalidCheckout)
		}
	case model.DeliveryTypePickup:
		if in.PickupLocationID == nil {
			return decimal.Zero, fmt.Errorf("%w: pickup requires a pickup location", ErrInvalidCheckout)
		}
		if in.DeliveryAddressID != nil {
			return decimal.Zero, fmt.Errorf("%w: delivery and pickup are mutually exclusive", ErrInvalidCheckout)
		}
	case model.DeliveryTypeStockpile:
		if in.DeliveryAddressID != nil || in.PickupLocationID != nil {
			return decimal.Zero, fmt.Errorf("%w: stockpile orders carry no delivery or pickup reference", ErrInvalidCheckout)
		}
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown delivery type %q", ErrInvalidCheckout, in.DeliveryType)
	}
	return subtotal, nil
}

// scaleSplits shrinks vendor subtotals to their proportional share of what
// is actually collected in cash, so a points-covered slice of the order
// never inflates the gateway split past the charge.
func scaleSplits(splits []VendorSplit, total, remainder decimal.Decimal) []VendorSplit {
	if !total.IsPositive() || remainder.GreaterThanOrEqual(total) {
		return splits
	}
	factor := remainder.Div(total)
	scaled := make([]VendorSplit, len(splits))
	for i, split := range splits {
		scaled[i] = VendorSplit{VendorID: split.VendorID, Amount: split.Amount.Mul(factor).Round(2)}
	}
	return scaled
}
