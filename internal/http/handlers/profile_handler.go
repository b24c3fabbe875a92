package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealdesk/canteen-backend/internal/http/handlers/common"
	"github.com/mealdesk/canteen-backend/internal/service"
)

// ProfileHandler предоставляет HTTP слой для профиля пользователя.
type ProfileHandler struct {
	auth *service.AuthService
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(auth *service.AuthService) *ProfileHandler {
	return &ProfileHandler{auth: auth}
}

// Get обрабатывает GET /profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	profile, err := h.auth.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Update обрабатывает PUT /profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	user, err := common.CurrentUser(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		FirstName   string `json:"first_name" binding:"required"`
		LastName    string `json:"last_name" binding:"required"`
		PhoneNumber string `json:"phone_number"`
		Department  string `json:"department"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, service.UpdateProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Department:  req.Department,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
