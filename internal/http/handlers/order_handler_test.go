package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mealdesk/canteen-backend/internal/http/middleware"
	"github.com/mealdesk/canteen-backend/internal/models"
)

func TestOrderHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.POST("/orders/create", handler.Create)

	req, _ := http.NewRequest("POST", "/orders/create", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderHandler_ListMine_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.GET("/orders", handler.ListMine)

	req, _ := http.NewRequest("GET", "/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrderHandler_Get_InvalidOrderID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.GET("/orders/:id", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.User{ID: uuid.New()})
		handler.Get(c)
	})

	req, _ := http.NewRequest("GET", "/orders/invalid-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_Cancel_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &OrderHandler{orders: nil}
	r.POST("/orders/:id/cancel", handler.Cancel)

	req, _ := http.NewRequest("POST", "/orders/"+uuid.NewString()+"/cancel", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
