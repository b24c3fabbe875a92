package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mealdesk/canteen-backend/internal/http/handlers/common"
	"github.com/mealdesk/canteen-backend/internal/service"
)

// FreeMealHandler предоставляет HTTP слой дней бесплатных обедов.
type FreeMealHandler struct {
	freeMeals *service.FreeMealService
}

// NewFreeMealHandler создаёт хэндлер.
func NewFreeMealHandler(freeMeals *service.FreeMealService) *FreeMealHandler {
	return &FreeMealHandler{freeMeals: freeMeals}
}

// CheckToday обрабатывает GET /check-free-meal-today.
func (h *FreeMealHandler) CheckToday(c *gin.Context) {
	today, err := h.freeMeals.CheckToday(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, today)
}

// List обрабатывает GET /admin/free-meal-days.
func (h *FreeMealHandler) List(c *gin.Context) {
	days, err := h.freeMeals.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"free_meal_days": days})
}

// Create обрабатывает POST /admin/free-meal-days.
func (h *FreeMealHandler) Create(c *gin.Context) {
	admin, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		Date     string `json:"date" binding:"required"`
		Reason   string `json:"reason"`
		IsActive *bool  `json:"is_active"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		common.RespondBadRequest(c, "дата должна быть в формате ГГГГ-ММ-ДД")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	day, err := h.freeMeals.Create(c.Request.Context(), admin, service.FreeMealDayInput{
		Date:     date,
		Reason:   req.Reason,
		IsActive: active,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, day)
}

// Update обрабатывает PUT /admin/free-meal-days/:id.
func (h *FreeMealHandler) Update(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Reason   string `json:"reason"`
		IsActive *bool  `json:"is_active" binding:"required"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	day, err := h.freeMeals.Update(c.Request.Context(), id, req.Reason, *req.IsActive)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, day)
}

// Delete обрабатывает DELETE /admin/free-meal-days/:id.
func (h *FreeMealHandler) Delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.freeMeals.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "бесплатный день удалён")
}
