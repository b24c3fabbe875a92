package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealdesk/canteen-backend/internal/http/handlers/common"
	"github.com/mealdesk/canteen-backend/internal/service"
)

// CatalogHandler предоставляет меню для сотрудников.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler создаёт хэндлер.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories обрабатывает GET /categories.
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListMeals обрабатывает GET /meals. Сотрудники видят только
// доступные блюда, фильтр по категории через ?category_id=.
func (h *CatalogHandler) ListMeals(c *gin.Context) {
	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "неверный формат category_id")
			return
		}
		categoryID = &parsed
	}

	meals, err := h.catalog.ListMeals(c.Request.Context(), categoryID, false)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// GetMeal обрабатывает GET /meals/:id.
func (h *CatalogHandler) GetMeal(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	meal, err := h.catalog.GetMeal(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, meal)
}
