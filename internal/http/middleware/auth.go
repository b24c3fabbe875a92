package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// Context ключи для gin.Context.
const (
	ContextUserKey  = "currentUser"
	ContextTokenKey = "authToken"
)

// Authenticator проверяет токен и возвращает его владельца.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware проверяет Bearer токен. Токен считается живым, только
// если ему соответствует сессия: после logout он перестаёт работать.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		raw := strings.TrimPrefix(header, "Bearer ")
		user, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "токен невалиден"})
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, raw)
		c.Next()
	}
}

// AdminOnly пропускает только администраторов кухни.
// Ставится после AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(ContextUserKey)
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "требуется авторизация"})
			return
		}

		user, ok := raw.(*models.User)
		if !ok || !user.IsKitchenAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "недостаточно прав"})
			return
		}

		c.Next()
	}
}
