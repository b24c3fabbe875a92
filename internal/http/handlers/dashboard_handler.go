package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealdesk/canteen-backend/internal/http/handlers/common"
	"github.com/mealdesk/canteen-backend/internal/service"
)

// DashboardHandler отдаёт сводки по заказам.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler создаёт хэндлер.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// CustomerStats обрабатывает GET /dashboard/customer-stats.
func (h *DashboardHandler) CustomerStats(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	stats, err := h.dashboard.CustomerStats(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// AdminStats обрабатывает GET /admin/dashboard-stats.
func (h *DashboardHandler) AdminStats(c *gin.Context) {
	stats, err := h.dashboard.AdminStats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
