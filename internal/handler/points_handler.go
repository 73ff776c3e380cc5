package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pepsfoods/checkout-backend/internal/model"
	"github.com/pepsfoods/checkout-backend/internal/service"
)

type PointsHandler struct {
	svc service.PointsService
}

func NewPointsHandler(svc service.PointsService) *PointsHandler {
	return &PointsHandler{svc: svc}
}

type PointsBalanceResponse struct {
	Balance int64 `json:"balance"`
}

type PointsEntryResponse struct {
	ID              uint64  `json:"id"`
	Points          int64   `json:"points"`
	TransactionType string  `json:"transactionType"`
	Source          string  `json:"source"`
	ReferenceID     *uint64 `json:"referenceId,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

func toPointsEntryResponse(e model.PointsEntry) PointsEntryResponse {
	return PointsEntryResponse{
		ID:              e.ID,
		Points:          e.Points,
		TransactionType: string(e.TransactionType),
		Source:          e.Source,
		ReferenceID:     e.ReferenceID,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
}

func (h *PointsHandler) Balance(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	balance, err := h.svc.Balance(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch balance"))
	}
	return c.JSON(http.StatusOK, PointsBalanceResponse{Balance: balance})
}

func (h *PointsHandler) History(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.svc.History(c.Request().Context(), uid, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch history"))
	}
	resp := make([]PointsEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, toPointsEntryResponse(entry))
	}
	return c.JSON(http.StatusOK, resp)
}
