package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mealdesk/canteen-backend/internal/config"
	"github.com/mealdesk/canteen-backend/internal/http/handlers"
	"github.com/mealdesk/canteen-backend/internal/http/middleware"
)

// SetupRouter собирает все маршруты приложения.
func SetupRouter(
	cfg *config.Config,
	authenticator middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	catalogHandler *handlers.CatalogHandler,
	orderHandler *handlers.OrderHandler,
	paymentHandler *handlers.PaymentHandler,
	departmentHandler *handlers.DepartmentHandler,
	freeMealHandler *handlers.FreeMealHandler,
	dashboardHandler *handlers.DashboardHandler,
	adminHandler *handlers.AdminHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	log *logrus.Entry,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler(log))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Check)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	// Аутентификация под rate limit: перебор паролей и кодов дорожает.
	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/verify-email", authHandler.VerifyEmail)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password", authHandler.ResetPassword)
	}

	auth := middleware.AuthMiddleware(authenticator)

	api.POST("/auth/logout", auth, authHandler.Logout)

	// Меню и список отделов открыты без токена:
	// отделы нужны форме регистрации.
	api.GET("/categories", catalogHandler.ListCategories)
	api.GET("/meals", catalogHandler.ListMeals)
	api.GET("/meals/:id", middleware.UUIDValidator("id"), catalogHandler.GetMeal)
	api.GET("/departments", departmentHandler.List)

	// Защищённые маршруты сотрудников.
	protected := api.Group("/")
	protected.Use(auth)
	{
		protected.GET("/profile", profileHandler.Get)
		protected.PUT("/profile", profileHandler.Update)

		protected.POST("/orders/create", orderHandler.Create)
		protected.GET("/orders", orderHandler.ListMine)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), orderHandler.Cancel)
		protected.GET("/orders/:id/payment", middleware.UUIDValidator("id"), paymentHandler.GetForOrder)

		protected.POST("/payments/create", paymentHandler.Submit)
		protected.GET("/payments/:id", middleware.UUIDValidator("id"), paymentHandler.Get)

		protected.GET("/dashboard/customer-stats", dashboardHandler.CustomerStats)

		protected.GET("/check-free-meal-today", freeMealHandler.CheckToday)
	}

	// Маршруты администратора кухни.
	admin := api.Group("/admin")
	admin.Use(auth, middleware.AdminOnly())
	{
		admin.GET("/dashboard-stats", dashboardHandler.AdminStats)

		admin.GET("/categories", adminHandler.ListCategories)
		admin.POST("/categories", adminHandler.CreateCategory)
		admin.PUT("/categories/:id", middleware.UUIDValidator("id"), adminHandler.UpdateCategory)
		admin.DELETE("/categories/:id", middleware.UUIDValidator("id"), adminHandler.DeleteCategory)

		admin.GET("/meals", adminHandler.ListMeals)
		admin.POST("/meals", adminHandler.CreateMeal)
		admin.PUT("/meals/:id", middleware.UUIDValidator("id"), adminHandler.UpdateMeal)
		admin.DELETE("/meals/:id", middleware.UUIDValidator("id"), adminHandler.DeleteMeal)
		admin.POST("/meals/:id/image", middleware.UUIDValidator("id"), adminHandler.UploadMealImage)

		admin.GET("/departments", departmentHandler.ListAll)
		admin.POST("/departments", departmentHandler.Create)
		admin.PUT("/departments/:id", middleware.UUIDValidator("id"), departmentHandler.Update)
		admin.DELETE("/departments/:id", middleware.UUIDValidator("id"), departmentHandler.Delete)

		admin.GET("/free-meal-days", freeMealHandler.List)
		admin.POST("/free-meal-days", freeMealHandler.Create)
		admin.PUT("/free-meal-days/:id", middleware.UUIDValidator("id"), freeMealHandler.Update)
		admin.DELETE("/free-meal-days/:id", middleware.UUIDValidator("id"), freeMealHandler.Delete)

		admin.GET("/orders", adminHandler.ListOrders)
		admin.GET("/orders/date-range", adminHandler.ListOrdersByDateRange)
		admin.POST("/orders/create", adminHandler.CreateOrderForUser)
		admin.POST("/orders/:id/fulfill", middleware.UUIDValidator("id"), adminHandler.FulfillOrder)

		admin.GET("/payments", adminHandler.ListPayments)
		admin.PUT("/payments/:id/verify", middleware.UUIDValidator("id"), adminHandler.VerifyPayment)

		admin.GET("/notifications", adminHandler.ListNotifications)
		admin.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), adminHandler.MarkNotificationRead)
		admin.PUT("/notifications/read-all", adminHandler.MarkAllNotificationsRead)

		admin.GET("/ws", wsHandler.Serve)
	}

	return r
}
