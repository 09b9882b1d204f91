package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tasksur/tasksur/internal/model"
	"github.com/tasksur/tasksur/internal/repository"
)

// PaymentHandler records payment attempts and their status changes.
// The order id correlates rows with the external provider.
type PaymentHandler struct {
	Payments PaymentStore
}

func NewPaymentHandler(payments PaymentStore) *PaymentHandler {
	return &PaymentHandler{Payments: payments}
}

type createPaymentReq struct {
	OrderID  string  `json:"orderId" validate:"required"`
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency"`
	Method   string  `json:"method" validate:"required"`
}

type updatePaymentReq struct {
	Status string `json:"status" validate:"required"`
}

// Create handles POST /api/payments. New records start pending.
func (h *PaymentHandler) Create(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	var req createPaymentReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	if !model.ValidPaymentMethod(req.Method) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payment method"})
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	p := model.Payment{
		UserID:   u.ID,
		OrderID:  strings.TrimSpace(req.OrderID),
		Amount:   req.Amount,
		Currency: req.Currency,
		Method:   req.Method,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Payments.Create(ctx, &p); err != nil {
		if err == repository.ErrOrderExists {
			return c.JSON(http.StatusConflict, echo.Map{"message": "a payment with this order id already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not record payment"})
	}
	return c.JSON(http.StatusCreated, p)
}

// List handles GET /api/payments, the requester's own payment history.
func (h *PaymentHandler) List(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Payments.ListByUser(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not list payments"})
	}
	return c.JSON(http.StatusOK, items)
}

// UpdateStatus handles PATCH /api/payments/:orderId/status. Only the
// payer or an admin may move a payment; the first transition to
// completed credits the payer's earnings inside the repository
// transaction.
func (h *PaymentHandler) UpdateStatus(c echo.Context) error {
	u, ok := requester(c)
	if !ok {
		return nil
	}
	var req updatePaymentReq
	if !bindAndValidate(c, &req) {
		return nil
	}
	status := model.PaymentStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !model.ValidPaymentStatus(status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payment status"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	existing, err := h.Payments.GetByOrderID(ctx, c.Param("orderId"))
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not load payment"})
	}
	if u.Role != model.RoleAdmin && existing.UserID != u.ID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "cannot modify another user's payment"})
	}

	p, err := h.Payments.UpdateStatusByOrderID(ctx, existing.OrderID, status)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not update payment"})
	}
	return c.JSON(http.StatusOK, p)
}
