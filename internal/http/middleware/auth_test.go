package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mealdesk/canteen-backend/internal/models"
)

type stubAuthenticator struct {
	user *models.User
	err  error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, _ string) (*models.User, error) {
	return s.user, s.err
}

func adminTestRouter(auth Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/orders", AuthMiddleware(auth), AdminOnly(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestAdminOnly_ForbidsRegularUser(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "ivan@example.com"}
	r := adminTestRouter(&stubAuthenticator{user: user})

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminOnly_AllowsKitchenAdmin(t *testing.T) {
	admin := &models.User{ID: uuid.New(), Email: "admin@example.com", IsKitchenAdmin: true}
	r := adminTestRouter(&stubAuthenticator{user: admin})

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminOnly_WithoutAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin/orders", AdminOnly(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Без AuthMiddleware пользователя в контексте нет.
	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := adminTestRouter(&stubAuthenticator{user: &models.User{IsKitchenAdmin: true}})

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectedToken(t *testing.T) {
	r := adminTestRouter(&stubAuthenticator{err: errors.New("session not found")})

	req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
	req.Header.Set("Authorization", "Bearer revoked")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
