package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealdesk/canteen-backend/internal/http/handlers/common"
	"github.com/mealdesk/canteen-backend/internal/service"
)

// OrderHandler предоставляет HTTP слой заказов для сотрудников.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler создаёт хэндлер.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Create обрабатывает POST /orders/create.
func (h *OrderHandler) Create(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		Notes string `json:"notes"`
		Items []struct {
			MealID   uuid.UUID `json:"meal_id" binding:"required"`
			Quantity int       `json:"quantity" binding:"required"`
		} `json:"items" binding:"required"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.OrderItemInput{
			MealID:   item.MealID,
			Quantity: item.Quantity,
		})
	}

	order, err := h.orders.Create(c.Request.Context(), user, req.Notes, items)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListMine обрабатывает GET /orders.
func (h *OrderHandler) ListMine(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orders, err := h.orders.ListMine(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get обрабатывает GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
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

	order, err := h.orders.Get(c.Request.Context(), user, orderID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Cancel обрабатывает POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
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

	if err := h.orders.Cancel(c.Request.Context(), user, orderID); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "заказ отменён")
}
