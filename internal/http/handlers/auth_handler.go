package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mealdesk/canteen-backend/internal/http/handlers/common"
	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/service"
)

// AuthHandler предоставляет HTTP слой для регистрации и входа.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register обрабатывает POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email           string `json:"email" binding:"required"`
		Username        string `json:"username" binding:"required"`
		Password        string `json:"password" binding:"required"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
		FirstName       string `json:"first_name" binding:"required"`
		LastName        string `json:"last_name" binding:"required"`
		PhoneNumber     string `json:"phone_number"`
		EmployeeID      string `json:"employee_id"`
		Department      string `json:"department"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
		EmployeeID:      req.EmployeeID,
		Department:      req.Department,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":    user,
		"message": "код подтверждения отправлен на email",
	})
}

// VerifyEmail обрабатывает POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Email   string `json:"email" binding:"required"`
		OTP     string `json:"otp" binding:"required"`
		Purpose string `json:"purpose" binding:"required"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.VerifyEmail(c.Request.Context(), req.Email, req.OTP, req.Purpose); err != nil {
		_ = c.Error(err)
		return
	}

	message := "код подтверждён"
	if req.Purpose == models.OTPPurposeVerification {
		message = "email подтверждён"
	}
	common.RespondMessage(c, http.StatusOK, message)
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	userAgent := c.GetHeader("User-Agent")
	ip := c.ClientIP()

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, &userAgent, &ip)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       result.User,
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
	})
}

// ForgotPassword обрабатывает POST /auth/forgot-password.
// Ответ не раскрывает, существует ли аккаунт.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "если аккаунт существует, код отправлен на email")
}

// ResetPassword обрабатывает POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Email           string `json:"email" binding:"required"`
		OTP             string `json:"otp" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
		ConfirmPassword string `json:"confirm_password" binding:"required"`
	}

	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword, req.ConfirmPassword); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "пароль изменён")
}

// Logout обрабатывает POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, err := common.CurrentToken(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "сессия завершена")
}
