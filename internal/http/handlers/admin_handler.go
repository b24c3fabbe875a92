package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealdesk/canteen-backend/internal/http/handlers/common"
	"github.com/mealdesk/canteen-backend/internal/service"
	"github.com/mealdesk/canteen-backend/internal/storage"
)

// AdminHandler предоставляет операции администратора кухни:
// управление меню, проверку платежей, заказы и уведомления.
type AdminHandler struct {
	catalog  *service.CatalogService
	orders   *service.OrderService
	payments *service.PaymentService
	images   *storage.ImageStorage
}

// NewAdminHandler создаёт хэндлер.
func NewAdminHandler(catalog *service.CatalogService, orders *service.OrderService, payments *service.PaymentService, images *storage.ImageStorage) *AdminHandler {
	return &AdminHandler{
		catalog:  catalog,
		orders:   orders,
		payments: payments,
		images:   images,
	}
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type mealRequest struct {
	CategoryID     uuid.UUID `json:"category_id" binding:"required"`
	Name           string    `json:"name" binding:"required"`
	Description    string    `json:"description"`
	Price          float64   `json:"price" binding:"required"`
	IsAvailable    *bool     `json:"is_available"`
	MaxPerPerson   int       `json:"max_per_person"`
	UnitsAvailable *int      `json:"units_available"`
}

func (r *mealRequest) toInput() service.MealInput {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	maxPerPerson := r.MaxPerPerson
	if maxPerPerson == 0 {
		maxPerPerson = 1
	}
	return service.MealInput{
		CategoryID:     r.CategoryID,
		Name:           r.Name,
		Description:    r.Description,
		Price:          r.Price,
		IsAvailable:    available,
		MaxPerPerson:   maxPerPerson,
		UnitsAvailable: r.UnitsAvailable,
	}
}

// ListCategories обрабатывает GET /admin/categories.
func (h *AdminHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory обрабатывает POST /admin/categories.
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// UpdateCategory обрабатывает PUT /admin/categories/:id.
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req categoryRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	category, err := h.catalog.UpdateCategory(c.Request.Context(), id, service.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory обрабатывает DELETE /admin/categories/:id.
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "категория удалена")
}

// ListMeals обрабатывает GET /admin/meals. Показывает и скрытые блюда.
func (h *AdminHandler) ListMeals(c *gin.Context) {
	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "неверный формат category_id")
			return
		}
		categoryID = &parsed
	}

	meals, err := h.catalog.ListMeals(c.Request.Context(), categoryID, true)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// CreateMeal обрабатывает POST /admin/meals.
func (h *AdminHandler) CreateMeal(c *gin.Context) {
	var req mealRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	meal, err := h.catalog.CreateMeal(c.Request.Context(), req.toInput())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, meal)
}

// UpdateMeal обрабатывает PUT /admin/meals/:id.
func (h *AdminHandler) UpdateMeal(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req mealRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	meal, err := h.catalog.UpdateMeal(c.Request.Context(), id, req.toInput())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, meal)
}

// DeleteMeal обрабатывает DELETE /admin/meals/:id.
func (h *AdminHandler) DeleteMeal(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.catalog.DeleteMeal(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "блюдо скрыто из меню")
}

// UploadMealImage обрабатывает POST /admin/meals/:id/image.
// Тип файла определяется по содержимому, не по расширению.
func (h *AdminHandler) UploadMealImage(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		common.RespondBadRequest(c, "файл image обязателен")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	// Блюдо должно существовать до записи файла на диск.
	if _, err := h.catalog.GetMeal(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	path, size, err := h.images.SaveMealImage(c.Request.Context(), id, file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotAnImage):
			common.RespondBadRequest(c, "файл не является изображением")
		case errors.Is(err, storage.ErrTooLarge):
			common.RespondError(c, http.StatusRequestEntityTooLarge, "файл слишком большой")
		default:
			_ = c.Error(err)
		}
		return
	}

	if err := h.catalog.SetMealImage(c.Request.Context(), id, path); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"image_path": path,
		"size":       size,
	})
}

// ListOrders обрабатывает GET /admin/orders с фильтром ?status=.
func (h *AdminHandler) ListOrders(c *gin.Context) {
	orders, err := h.orders.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// CreateOrderForUser обрабатывает POST /admin/orders/create.
// Администратор оформляет заказ от имени сотрудника по его email.
func (h *AdminHandler) CreateOrderForUser(c *gin.Context) {
	var req struct {
		UserEmail string `json:"user_email" binding:"required"`
		Notes     string `json:"notes"`
		Items     []struct {
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

	order, err := h.orders.CreateForUser(c.Request.Context(), req.UserEmail, req.Notes, items)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ListOrdersByDateRange обрабатывает GET /admin/orders/date-range
// с параметрами ?start_date= и ?end_date= в формате ГГГГ-ММ-ДД.
func (h *AdminHandler) ListOrdersByDateRange(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		common.RespondBadRequest(c, "start_date должен быть в формате ГГГГ-ММ-ДД")
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		common.RespondBadRequest(c, "end_date должен быть в формате ГГГГ-ММ-ДД")
		return
	}

	orders, err := h.orders.ListByDateRange(c.Request.Context(), from, to)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// FulfillOrder обрабатывает POST /admin/orders/:id/fulfill.
func (h *AdminHandler) FulfillOrder(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.MarkFulfilled(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListPayments обрабатывает GET /admin/payments с фильтром ?status=.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	payments, err := h.payments.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// VerifyPayment обрабатывает PUT /admin/payments/:id/verify.
func (h *AdminHandler) VerifyPayment(c *gin.Context) {
	admin, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Confirmed *bool  `json:"confirmed" binding:"required"`
		Notes     string `json:"notes"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payment, err := h.payments.Verify(c.Request.Context(), admin, id, *req.Confirmed, req.Notes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListNotifications обрабатывает GET /admin/notifications.
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	onlyUnread := c.Query("unread") == "true"
	limit := common.ParseIntQuery(c, "limit", 50)

	notifications, err := h.orders.Notifications(c.Request.Context(), onlyUnread, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkNotificationRead обрабатывает PUT /admin/notifications/:id/read.
func (h *AdminHandler) MarkNotificationRead(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.orders.MarkNotificationRead(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "уведомление прочитано")
}

// MarkAllNotificationsRead обрабатывает PUT /admin/notifications/read-all.
func (h *AdminHandler) MarkAllNotificationsRead(c *gin.Context) {
	if err := h.orders.MarkAllNotificationsRead(c.Request.Context()); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "все уведомления прочитаны")
}
