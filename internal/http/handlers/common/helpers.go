package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mealdesk/canteen-backend/internal/http/middleware"
	"github.com/mealdesk/canteen-backend/internal/models"
)

var (
	// ErrNoUser возвращается, когда пользователь не найден в контексте.
	ErrNoUser = errors.New("пользователь не найден в контексте")

	// ErrInvalidUUID возвращается при ошибке разбора UUID.
	ErrInvalidUUID = errors.New("неверный формат UUID")
)

// CurrentUser достаёт аутентифицированного пользователя из контекста.
func CurrentUser(c *gin.Context) (*models.User, error) {
	raw, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, ErrNoUser
	}

	user, ok := raw.(*models.User)
	if !ok {
		return nil, ErrNoUser
	}

	return user, nil
}

// CurrentToken достаёт токен текущего запроса из контекста.
func CurrentToken(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextTokenKey)
	if !exists {
		return "", ErrNoUser
	}

	token, ok := raw.(string)
	if !ok {
		return "", ErrNoUser
	}

	return token, nil
}

// ParseUUIDParam разбирает UUID из параметра пути.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// BindAndValidate разбирает JSON тело запроса.
func BindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("ошибка валидации запроса: %w", err)
	}
	return nil
}

// RespondError отправляет стандартный ответ с ошибкой.
func RespondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// RespondJSON отправляет JSON ответ.
func RespondJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

// RespondMessage отправляет ответ с одним информационным сообщением.
func RespondMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}

// RespondUnauthorized отправляет 401.
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "требуется авторизация"
	}
	RespondError(c, http.StatusUnauthorized, message)
}

// RespondBadRequest отправляет 400.
func RespondBadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "некорректный запрос"
	}
	RespondError(c, http.StatusBadRequest, message)
}

// ParseIntQuery читает целочисленный query параметр с запасным значением.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}
