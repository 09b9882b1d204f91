package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/service"
)

// PayPalHandler proxies the browser-facing PayPal operations through
// the server so client credentials never leave it.
type PayPalHandler struct {
	Client *service.PayPalClient
}

func NewPayPalHandler(client *service.PayPalClient) *PayPalHandler {
	return &PayPalHandler{Client: client}
}

type createOrderReq struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency"`
	Intent   string `json:"intent"`
}

func (h *PayPalHandler) configured(c echo.Context) bool {
	if h.Client != nil && h.Client.Configured() {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "payment provider is not configured"})
	return false
}

// Setup handles GET /api/paypal/setup, returning a browser client
// token.
func (h *PayPalHandler) Setup(c echo.Context) error {
	if !h.configured(c) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	token, err := h.Client.ClientToken(ctx)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "payment provider request failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"clientToken": token})
}

// CreateOrder handles POST /api/paypal/order. The provider's response
// is passed through untouched so the frontend SDK can consume it.
func (h *PayPalHandler) CreateOrder(c echo.Context) error {
	if !h.configured(c) {
		return nil
	}
	var req createOrderReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	if req.Intent == "" {
		req.Intent = "CAPTURE"
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	raw, err := h.Client.CreateOrder(ctx, req.Amount, req.Currency, req.Intent)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "payment provider request failed"})
	}
	return c.JSONBlob(http.StatusCreated, raw)
}

// CaptureOrder handles POST /api/paypal/order/:orderID/capture.
func (h *PayPalHandler) CaptureOrder(c echo.Context) error {
	if !h.configured(c) {
		return nil
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	raw, err := h.Client.CaptureOrder(ctx, c.Param("orderID"))
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"message": "payment provider request failed"})
	}
	return c.JSONBlob(http.StatusOK, raw)
}
