package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
)

// Время жизни сводок в кеше. Сводки дешёвые, но дёргаются на каждый
// рендер дашборда, поэтому короткий кеш заметно снижает нагрузку.
const (
	customerStatsCacheTTL = 30 * time.Second
	adminStatsCacheTTL    = 15 * time.Second
)

// OrderStatsRepo — порт агрегатов по заказам.
type OrderStatsRepo interface {
	CustomerStats(ctx context.Context, userID uuid.UUID) (*models.CustomerStats, error)
	TodayStats(ctx context.Context) (ordersToday int, revenueToday float64, err error)
}

// PaymentStatsRepo — порт агрегатов по платежам.
type PaymentStatsRepo interface {
	CountPending(ctx context.Context) (int, error)
}

// CatalogStatsRepo — порт агрегатов по меню.
type CatalogStatsRepo interface {
	CountActiveMeals(ctx context.Context) (int, error)
}

// UserStatsRepo — порт агрегатов по пользователям.
type UserStatsRepo interface {
	CountCustomers(ctx context.Context) (int, error)
}

// DashboardService собирает сводки для сотрудников и администраторов.
type DashboardService struct {
	orders   OrderStatsRepo
	payments PaymentStatsRepo
	catalog  CatalogStatsRepo
	users    UserStatsRepo
	cache    *CacheService
	log      *logrus.Entry
}

// NewDashboardService создаёт сервис дашбордов.
func NewDashboardService(orders OrderStatsRepo, payments PaymentStatsRepo, catalog CatalogStatsRepo, users UserStatsRepo, cache *CacheService, log *logrus.Entry) *DashboardService {
	return &DashboardService{
		orders:   orders,
		payments: payments,
		catalog:  catalog,
		users:    users,
		cache:    cache,
		log:      log,
	}
}

// CustomerStats возвращает агрегаты по заказам пользователя.
func (s *DashboardService) CustomerStats(ctx context.Context, userID uuid.UUID) (*models.CustomerStats, error) {
	key := StatsCacheKey(userID)
	if cached, found := s.cache.Get(key); found {
		if stats, ok := cached.(*models.CustomerStats); ok {
			return stats, nil
		}
	}

	stats, err := s.orders.CustomerStats(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить статистику")
	}

	s.cache.Set(key, stats, customerStatsCacheTTL)

	return stats, nil
}

// AdminStats возвращает сводку по всей системе для администратора кухни.
func (s *DashboardService) AdminStats(ctx context.Context) (*models.AdminDashboardStats, error) {
	key := AdminDashboardCacheKey()
	if cached, found := s.cache.Get(key); found {
		if stats, ok := cached.(*models.AdminDashboardStats); ok {
			return stats, nil
		}
	}

	ordersToday, revenueToday, err := s.orders.TodayStats(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить сводку")
	}

	pendingPayments, err := s.payments.CountPending(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить сводку")
	}

	activeMeals, err := s.catalog.CountActiveMeals(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить сводку")
	}

	totalCustomers, err := s.users.CountCustomers(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить сводку")
	}

	stats := &models.AdminDashboardStats{
		TotalOrdersToday:  ordersToday,
		TotalRevenueToday: revenueToday,
		PendingPayments:   pendingPayments,
		ActiveMeals:       activeMeals,
		TotalCustomers:    totalCustomers,
	}

	s.cache.Set(key, stats, adminStatsCacheTTL)

	return stats, nil
}
