package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pepsfoods/checkout-backend/internal/resilience"
	"github.com/pepsfoods/checkout-backend/internal/service"
)

type AuthHandler struct {
	svc service.AuthService
}

func NewAuthHandler(svc service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	UID           string `json:"uid,omitempty"`
	AccessToken   string `json:"accessToken,omitempty"`
	ExpiresAt     string `json:"expiresAt,omitempty"`
	MagicLinkSent bool   `json:"magicLinkSent"`
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var body signInRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request body"))
	}
	if body.Email == "" || body.Password == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "email and password are required"))
	}

	res, err := h.svc.SignIn(c.Request().Context(), body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, resilience.ErrOffline):
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("offline", "no internet connection"))
		case errors.Is(err, resilience.ErrBackendUnhealthy):
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("degraded", "sign in is temporarily unavailable"))
		default:
			var exhausted *resilience.RetryExhaustedError
			if errors.As(err, &exhausted) {
				return c.JSON(http.StatusGatewayTimeout, NewErrorResponse("timeout", exhausted.Error()))
			}
			return c.JSON(http.StatusUnauthorized, NewErrorResponse("invalid_credentials", "email or password is incorrect"))
		}
	}
	if res.MagicLinkSent {
		return c.JSON(http.StatusAccepted, SignInResponse{MagicLinkSent: true})
	}
	return c.JSON(http.StatusOK, SignInResponse{
		UID:         res.Session.UID,
		AccessToken: res.Session.AccessToken,
		ExpiresAt:   res.Session.ExpiresAt.Format(time.RFC3339),
	})
}
