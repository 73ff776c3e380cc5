package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pepsfoods/checkout-backend/internal/gateway"
	"github.com/pepsfoods/checkout-backend/internal/resilience"
	"github.com/pepsfoods/checkout-backend/internal/service"
)

type PaymentHandler struct {
	svc       service.PaymentService
	secretKey string
}

func NewPaymentHandler(svc service.PaymentService, secretKey string) *PaymentHandler {
	return &PaymentHandler{svc: svc, secretKey: secretKey}
}

type VerificationResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	OrderID   uint64 `json:"orderId"`
}

func (h *PaymentHandler) Verify(c echo.Context) error {
	reference := c.QueryParam("reference")
	if reference == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "missing reference"))
	}
	res, err := h.svc.Verify(c.Request().Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "payment not found"))
		case errors.Is(err, resilience.ErrOffline), errors.Is(err, resilience.ErrBackendUnhealthy):
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("degraded", "verification is temporarily unavailable"))
		default:
			var exhausted *resilience.RetryExhaustedError
			if errors.As(err, &exhausted) {
				return c.JSON(http.StatusGatewayTimeout, NewErrorResponse("timeout", exhausted.Error()))
			}
			return c.JSON(http.StatusBadGateway, NewErrorResponse("verify_failed", "could not verify payment"))
		}
	}
	return c.JSON(http.StatusOK, VerificationResponse{
		Reference: res.Reference,
		Status:    res.Status,
		Amount:    res.Amount.StringFixed(2),
		OrderID:   res.OrderID,
	})
}

type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
	} `json:"data"`
}

// Webhook handles asynchronous gateway callbacks. The body signature is
// checked before anything is parsed; an invalid signature is a hard reject.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unreadable body"))
	}
	signature := c.Request().Header.Get("x-paystack-signature")
	if !gateway.VerifyWebhookSignature(h.secretKey, body, signature) {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("invalid_signature", "signature check failed"))
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid payload"))
	}
	if event.Data.Reference == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "missing reference"))
	}

	if err := h.svc.ProcessWebhook(c.Request().Context(), event.Data.Reference); err != nil {
		// A non-2xx tells the gateway to redeliver later.
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("webhook_failed", "could not process event"))
	}
	return c.NoContent(http.StatusOK)
}
