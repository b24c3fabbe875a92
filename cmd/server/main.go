package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mealdesk/canteen-backend/internal/config"
	"github.com/mealdesk/canteen-backend/internal/db"
	"github.com/mealdesk/canteen-backend/internal/goroutine"
	"github.com/mealdesk/canteen-backend/internal/http/handlers"
	"github.com/mealdesk/canteen-backend/internal/http/router"
	"github.com/mealdesk/canteen-backend/internal/logger"
	"github.com/mealdesk/canteen-backend/internal/repository"
	"github.com/mealdesk/canteen-backend/internal/service"
	"github.com/mealdesk/canteen-backend/internal/storage"
	"github.com/mealdesk/canteen-backend/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "development")
		logger.Log.WithError(err).Fatal("Не удалось загрузить конфигурацию")
	}

	logger.Init(os.Getenv("LOG_LEVEL"), cfg.Env)
	log := logger.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Не удалось подключиться к базе данных")
	}
	defer conn.Close()

	if err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
		log.WithError(err).Fatal("Не удалось выполнить миграции")
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(conn)
	verificationRepo := repository.NewVerificationRepository(conn)
	catalogRepo := repository.NewCatalogRepository(conn)
	orderRepo := repository.NewOrderRepository(conn)
	paymentRepo := repository.NewPaymentRepository(conn)
	notificationRepo := repository.NewNotificationRepository(conn)
	departmentRepo := repository.NewDepartmentRepository(conn)
	freeMealRepo := repository.NewFreeMealRepository(conn)

	// Инфраструктура.
	cache := service.NewCacheService()
	tokens := service.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)
	runner := goroutine.NewRunner(logger.WithComponent("goroutine"))

	images, err := storage.NewImageStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.WithError(err).Fatal("Не удалось создать хранилище изображений")
	}

	hub := ws.NewHub(logger.WithComponent("ws"))
	go hub.Run()

	// Сервисы.
	mailer := service.NewLogMailer(logger.WithComponent("mailer"))
	verification := service.NewVerificationService(verificationRepo, mailer, cfg.OTPTTL, logger.WithComponent("verification"))
	auth := service.NewAuthService(userRepo, verification, tokens, cache, logger.WithComponent("auth"))
	catalog := service.NewCatalogService(catalogRepo, logger.WithComponent("catalog"))
	orders := service.NewOrderService(orderRepo, userRepo, notificationRepo, cache, hub, runner, logger.WithComponent("orders"))
	payments := service.NewPaymentService(paymentRepo, orderRepo, notificationRepo, cache, hub, runner, logger.WithComponent("payments"))
	dashboard := service.NewDashboardService(orderRepo, paymentRepo, catalogRepo, userRepo, cache, logger.WithComponent("dashboard"))
	departments := service.NewDepartmentService(departmentRepo, logger.WithComponent("departments"))
	freeMeals := service.NewFreeMealService(freeMealRepo, logger.WithComponent("free-meals"))

	// HTTP слой.
	r := router.SetupRouter(
		cfg,
		auth,
		handlers.NewAuthHandler(auth),
		handlers.NewProfileHandler(auth),
		handlers.NewCatalogHandler(catalog),
		handlers.NewOrderHandler(orders),
		handlers.NewPaymentHandler(payments),
		handlers.NewDepartmentHandler(departments),
		handlers.NewFreeMealHandler(freeMeals),
		handlers.NewDashboardHandler(dashboard),
		handlers.NewAdminHandler(catalog, orders, payments, images),
		handlers.NewWSHandler(hub, cfg.AllowedOrigins, logger.WithComponent("ws")),
		handlers.NewHealthHandler(conn),
		logger.WithComponent("http"),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.HTTPPort).Info("Сервер запущен")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Ошибка HTTP сервера")
		}
	}()

	<-ctx.Done()
	log.Info("Получен сигнал остановки, завершаем работу")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Не удалось корректно остановить сервер")
	}

	log.Info("Сервер остановлен")
}
