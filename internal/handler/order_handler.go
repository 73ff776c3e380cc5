package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/internal/service"
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type OrderResponse struct {
	ID                uint64  `json:"id"`
	Reference         string  `json:"reference"`
	TotalAmount       string  `json:"totalAmount"`
	DeliveryType      string  `json:"deliveryType"`
	DeliveryAddressID *uint64 `json:"deliveryAddressId,omitempty"`
	PickupLocationID  *uint64 `json:"pickupLocationId,omitempty"`
	DeliveryFee       string  `json:"deliveryFee"`
	PepsAmount        int64   `json:"pepsAmount"`
	PaymentMethod     string  `json:"paymentMethod"`
	Status            string  `json:"status"`
	PaymentStatus     string  `json:"paymentStatus"`
	CreatedAt         string  `json:"createdAt"`
}

type OrderItemResponse struct {
	ID        uint64 `json:"id"`
	ProductID uint64 `json:"productId"`
	VendorID  uint64 `json:"vendorId"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
}

type OrderDetailResponse struct {
	Order OrderResponse       `json:"order"`
	Items []OrderItemResponse `json:"items"`
}

func toOrderResponse(o *model.Order) OrderResponse {
	return OrderResponse{
		ID:                o.ID,
		Reference:         o.Reference,
		TotalAmount:       o.TotalAmount.StringFixed(2),
		DeliveryType:      string(o.DeliveryType),
		DeliveryAddressID: o.DeliveryAddressID,
		PickupLocationID:  o.PickupLocationID,
		DeliveryFee:       o.DeliveryFee.StringFixed(2),
		PepsAmount:        o.PepsAmount,
		PaymentMethod:     string(o.PaymentMethod),
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		CreatedAt:         o.CreatedAt.Format(time.RFC3339),
	}
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	orders, err := h.svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch orders"))
	}
	resp := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	detail, err := h.svc.Get(c.Request().Context(), id, uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "order not found"))
		case errors.Is(err, service.ErrForbidden):
			return c.JSON(http.StatusForbidden, NewErrorResponse("forbidden", "not allowed"))
		default:
			return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch order"))
		}
	}
	items := make([]OrderItemResponse, 0, len(detail.Items))
	for _, item := range detail.Items {
		items = append(items, OrderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			VendorID:  item.VendorID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Subtotal:  item.Subtotal.StringFixed(2),
		})
	}
	return c.JSON(http.StatusOK, OrderDetailResponse{Order: toOrderResponse(detail.Order), Items: items})
}
