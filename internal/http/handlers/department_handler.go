package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealdesk/canteen-backend/internal/http/handlers/common"
	"github.com/mealdesk/canteen-backend/internal/service"
)

// DepartmentHandler предоставляет HTTP слой справочника отделов.
type DepartmentHandler struct {
	departments *service.DepartmentService
}

// NewDepartmentHandler создаёт хэндлер.
func NewDepartmentHandler(departments *service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{departments: departments}
}

type departmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (r *departmentRequest) toInput() service.DepartmentInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return service.DepartmentInput{
		Name:        r.Name,
		Description: r.Description,
		IsActive:    active,
	}
}

// List обрабатывает GET /departments. Открыт без токена: список нужен
// форме регистрации. Показываются только активные отделы.
func (h *DepartmentHandler) List(c *gin.Context) {
	departments, err := h.departments.List(c.Request.Context(), true)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

// ListAll обрабатывает GET /admin/departments. Показывает и отключённые.
func (h *DepartmentHandler) ListAll(c *gin.Context) {
	departments, err := h.departments.List(c.Request.Context(), false)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"departments": departments})
}

// Create обрабатывает POST /admin/departments.
func (h *DepartmentHandler) Create(c *gin.Context) {
	var req departmentRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	department, err := h.departments.Create(c.Request.Context(), req.toInput())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, department)
}

// Update обрабатывает PUT /admin/departments/:id.
func (h *DepartmentHandler) Update(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req departmentRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	department, err := h.departments.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, department)
}

// Delete обрабатывает DELETE /admin/departments/:id.
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.departments.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "отдел удалён")
}
