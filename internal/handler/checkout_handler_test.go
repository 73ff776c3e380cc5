package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pepsfoods/checkout-backend/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCheckoutService struct {
	err error
}

func (s *stubCheckoutService) QuoteDeliveryFee(ctx context.Context, user service.Identity, pickupLocationID, addressID uint64) (decimal.Decimal, error) {
	return decimal.Zero, s.err
}

func (s *stubCheckoutService) Checkout(ctx context.Context, user service.Identity, in service.CheckoutInput) (*service.CheckoutResult, error) {
	return nil, s.err
}

func performCheckout(t *testing.T, svcErr error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	e := echo.New()
	body := `{"items":[{"productId":1,"vendorId":10,"quantity":1,"unitPrice":"100"}],"deliveryType":"stockpile"}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("uid", "uid-1")
	c.Set("email", "buyer@pepsfoods.com")

	h := NewCheckoutHandler(&stubCheckoutService{err: svcErr})
	require.NoError(t, h.Checkout(c))

	var envelope ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope
}

func TestCheckoutValidationErrorSurfacesMessage(t *testing.T) {
	rec, envelope := performCheckout(t, fmt.Errorf("%w: cart is empty", service.ErrInvalidCheckout))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Message, "cart is empty")
}

// Infrastructure failures are not the client's fault and their detail stays
// out of the response.
func TestCheckoutInternalErrorIsOpaque(t *testing.T) {
	rec, envelope := performCheckout(t, fmt.Errorf("create order: %w",
		errors.New("duplicate key value violates unique constraint")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", envelope.Error.Code)
	assert.Equal(t, "checkout failed", envelope.Error.Message)
	assert.NotContains(t, rec.Body.String(), "duplicate key")
}

func TestCheckoutInsufficientPointsConflict(t *testing.T) {
	rec, envelope := performCheckout(t, service.ErrInsufficientPoints)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "insufficient_points", envelope.Error.Code)
}
