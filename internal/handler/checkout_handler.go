package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/internal/resilience"
	"github.com/pepsfoods/checkout-backend/internal/service"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	svc service.CheckoutService
}

func NewCheckoutHandler(svc service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{svc: svc}
}

type checkoutItemRequest struct {
	ProductID uint64          `json:"productId"`
	VendorID  uint64          `json:"vendorId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type checkoutRequest struct {
	Items               []checkoutItemRequest `json:"items"`
	DeliveryType        string                `json:"deliveryType"`
	DeliveryAddressID   *uint64               `json:"deliveryAddressId"`
	PickupLocationID    *uint64               `json:"pickupLocationId"`
	DeliveryFee         decimal.Decimal       `json:"deliveryFee"`
	DeliveryFeeAccepted bool                  `json:"deliveryFeeAccepted"`
	PointsRequested     int64                 `json:"pointsRequested"`
}

type CheckoutResponse struct {
	OrderID          uint64 `json:"orderId"`
	Reference        string `json:"reference"`
	Status           string `json:"status"`
	PaymentStatus    string `json:"paymentStatus"`
	PaymentMethod    string `json:"paymentMethod"`
	TotalAmount      string `json:"totalAmount"`
	PointsApplied    int64  `json:"pointsApplied"`
	CashRemainder    string `json:"cashRemainder"`
	Confirmed        bool   `json:"confirmed"`
	AuthorizationURL string `json:"authorizationUrl,omitempty"`
	PaymentReference string `json:"paymentReference,omitempty"`
	CreatedAt        string `json:"createdAt"`
}

func toCheckoutResponse(res *service.CheckoutResult) CheckoutResponse {
	return CheckoutResponse{
		OrderID:          res.Order.ID,
		Reference:        res.Order.Reference,
		Status:           string(res.Order.Status),
		PaymentStatus:    string(res.Order.PaymentStatus),
		PaymentMethod:    string(res.PaymentMethod),
		TotalAmount:      res.Order.TotalAmount.StringFixed(2),
		PointsApplied:    res.PointsApplied,
		CashRemainder:    res.CashRemainder.StringFixed(2),
		Confirmed:        res.Confirmed,
		AuthorizationURL: res.AuthorizationURL,
		PaymentReference: res.PaymentReference,
		CreatedAt:        res.Order.CreatedAt.Format(time.RFC3339),
	}
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	identity, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body checkoutRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request body"))
	}

	items := make([]service.CartItem, 0, len(body.Items))
	for _, item := range body.Items {
		items = append(items, service.CartItem{
			ProductID: item.ProductID,
			VendorID:  item.VendorID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	in := service.CheckoutInput{
		Items:               items,
		DeliveryType:        model.DeliveryType(body.DeliveryType),
		DeliveryAddressID:   body.DeliveryAddressID,
		PickupLocationID:    body.PickupLocationID,
		DeliveryFee:         body.DeliveryFee,
		DeliveryFeeAccepted: body.DeliveryFeeAccepted,
		PointsRequested:     body.PointsRequested,
	}

	res, err := h.svc.Checkout(c.Request().Context(), identity, in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
		case errors.Is(err, service.ErrInsufficientPoints):
			return c.JSON(http.StatusConflict, NewErrorResponse("insufficient_points", "points balance is too low"))
		case errors.Is(err, resilience.ErrOffline):
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("offline", "no internet connection"))
		case errors.Is(err, resilience.ErrBackendUnhealthy):
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("degraded", "service is temporarily unavailable"))
		case errors.Is(err, service.ErrInvalidCheckout):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
		default:
			var exhausted *resilience.RetryExhaustedError
			if errors.As(err, &exhausted) {
				return c.JSON(http.StatusGatewayTimeout, NewErrorResponse("timeout", exhausted.Error()))
			}
			// Anything unrecognized is an internal failure; don't pin it on
			// the client or echo its detail.
			return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "checkout failed"))
		}
	}
	return c.JSON(http.StatusCreated, toCheckoutResponse(res))
}

type deliveryQuoteRequest struct {
	PickupLocationID  uint64 `json:"pickupLocationId"`
	DeliveryAddressID uint64 `json:"deliveryAddressId"`
}

type DeliveryQuoteResponse struct {
	Fee string `json:"fee"`
}

func (h *CheckoutHandler) QuoteDeliveryFee(c echo.Context) error {
	identity, ok := callerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	var body deliveryQuoteRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request body"))
	}
	fee, err := h.svc.QuoteDeliveryFee(c.Request().Context(), identity, body.PickupLocationID, body.DeliveryAddressID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "pickup location or address not found"))
		case errors.Is(err, resilience.ErrOffline):
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("offline", "no internet connection"))
		default:
			return c.JSON(http.StatusBadGateway, NewErrorResponse("quote_failed", "could not quote delivery fee"))
		}
	}
	return c.JSON(http.StatusOK, DeliveryQuoteResponse{Fee: fee.StringFixed(2)})
}

func callerIdentity(c echo.Context) (service.Identity, bool) {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return service.Identity{}, false
	}
	email, _ := c.Get("email").(string)
	return service.Identity{UID: uid, Email: email}, true
}
