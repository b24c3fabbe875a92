package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealdesk/canteen-backend/internal/http/handlers/common"
	"github.com/mealdesk/canteen-backend/internal/service"
)

// PaymentHandler предоставляет HTTP слой платежей для сотрудников.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler создаёт хэндлер.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Submit обрабатывает POST /payments/create.
func (h *PaymentHandler) Submit(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		OrderID         uuid.UUID `json:"order_id" binding:"required"`
		TransactionCode string    `json:"transaction_code" binding:"required"`
		AmountPaid      float64   `json:"amount_paid" binding:"required"`
		PhoneNumber     string    `json:"phone_number"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payment, err := h.payments.Submit(c.Request.Context(), user, service.SubmitPaymentInput{
		OrderID:         req.OrderID,
		TransactionCode: req.TransactionCode,
		AmountPaid:      req.AmountPaid,
		PhoneNumber:     req.PhoneNumber,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// Get обрабатывает GET /payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	paymentID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payment, err := h.payments.Get(c.Request.Context(), user, paymentID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// GetForOrder обрабатывает GET /orders/:id/payment.
func (h *PaymentHandler) GetForOrder(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payment, err := h.payments.GetForOrder(c.Request.Context(), user, orderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}
