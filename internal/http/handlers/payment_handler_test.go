package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mealdesk/canteen-backend/internal/http/middleware"
	"github.com/mealdesk/canteen-backend/internal/models"
)

func TestPaymentHandler_Submit_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/payments/create", handler.Submit)

	req, _ := http.NewRequest("POST", "/payments/create", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_Submit_MissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/payments/create", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.User{ID: uuid.New()})
		handler.Submit(c)
	})

	body := strings.NewReader(`{"transaction_code": "AB12CD34"}`)
	req, _ := http.NewRequest("POST", "/payments/create", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_GetForOrder_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.GET("/orders/:id/payment", handler.GetForOrder)

	req, _ := http.NewRequest("GET", "/orders/"+uuid.NewString()+"/payment", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_GetForOrder_InvalidOrderID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.GET("/orders/:id/payment", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.User{ID: uuid.New()})
		handler.GetForOrder(c)
	})

	req, _ := http.NewRequest("GET", "/orders/invalid-uuid/payment", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
