package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealdesk/canteen-backend/internal/goroutine"
	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
	"github.com/mealdesk/canteen-backend/internal/repository"
	"github.com/mealdesk/canteen-backend/internal/validation"
)

// EventBroadcaster рассылает события подключённым администраторам.
type EventBroadcaster interface {
	Broadcast(event string, payload interface{})
}

// OrderRepo — порт хранилища заказов.
type OrderRepo interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, notes string, adminCreated bool, items []repository.OrderItemRequest) (*models.Order, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListAll(ctx context.Context, status string) ([]models.Order, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID) error
	MarkFulfilled(ctx context.Context, orderID uuid.UUID) error
}

// UserFinder ищет пользователя по email для заказов от имени сотрудника.
type UserFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// NotificationRepo — порт хранилища уведомлений администраторов.
type NotificationRepo interface {
	Create(ctx context.Context, notification *models.AdminNotification) error
	List(ctx context.Context, onlyUnread bool, limit int) ([]models.AdminNotification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) error
}

// OrderItemInput — позиция заказа из запроса клиента.
type OrderItemInput struct {
	MealID   uuid.UUID
	Quantity int
}

// OrderService реализует оформление и жизненный цикл заказов.
type OrderService struct {
	orders        OrderRepo
	users         UserFinder
	notifications NotificationRepo
	cache         *CacheService
	broadcaster   EventBroadcaster
	runner        *goroutine.Runner
	log           *logrus.Entry
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(orders OrderRepo, users UserFinder, notifications NotificationRepo, cache *CacheService, broadcaster EventBroadcaster, runner *goroutine.Runner, log *logrus.Entry) *OrderService {
	return &OrderService{
		orders:        orders,
		users:         users,
		notifications: notifications,
		cache:         cache,
		broadcaster:   broadcaster,
		runner:        runner,
		log:           log,
	}
}

// Create оформляет заказ. Сумма считается на сервере по ценам каталога,
// остатки списываются атомарно.
func (s *OrderService) Create(ctx context.Context, user *models.User, notes string, items []OrderItemInput) (*models.Order, error) {
	return s.create(ctx, user, notes, false, items)
}

// CreateForUser оформляет заказ от имени сотрудника с указанным email.
// Доступно только администратору кухни.
func (s *OrderService) CreateForUser(ctx context.Context, userEmail, notes string, items []OrderItemInput) (*models.Order, error) {
	email := strings.ToLower(strings.TrimSpace(userEmail))
	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось найти пользователя")
	}

	return s.create(ctx, user, notes, true, items)
}

func (s *OrderService) create(ctx context.Context, user *models.User, notes string, adminCreated bool, items []OrderItemInput) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "заказ должен содержать хотя бы одну позицию")
	}
	if err := validation.ValidateNotes(notes); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	requests := make([]repository.OrderItemRequest, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if err := validation.ValidateQuantity(item.Quantity); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
		if seen[item.MealID] {
			return nil, apperror.New(apperror.ErrCodeValidation, "блюдо не может повторяться в заказе")
		}
		seen[item.MealID] = true
		requests = append(requests, repository.OrderItemRequest{MealID: item.MealID, Quantity: item.Quantity})
	}

	order, err := s.orders.CreateOrder(ctx, user.ID, strings.TrimSpace(notes), adminCreated, requests)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMealNotFound):
			return nil, apperror.ErrMealNotFound
		case errors.Is(err, repository.ErrMealUnavailable),
			errors.Is(err, repository.ErrInsufficientStock),
			errors.Is(err, repository.ErrMaxPerPersonExceeded):
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, orderErrorMessage(err))
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось оформить заказ")
		}
	}

	s.cache.InvalidateUserCache(user.ID)
	s.cache.InvalidateDashboardCache()

	message := fmt.Sprintf("Заказ на сумму %.2f от %s", order.TotalAmount, user.Email)
	if order.IsFreeMeal {
		message = fmt.Sprintf("Бесплатный заказ от %s", user.Email)
	}
	s.notifyAdmins(ctx, models.NotificationNewOrder, "Новый заказ", message, order)

	s.log.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"user_id":      user.ID,
		"total_amount": order.TotalAmount,
		"is_free_meal": order.IsFreeMeal,
	}).Info("Заказ оформлен")

	return order, nil
}

// ListMine возвращает заказы пользователя.
func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить заказы")
	}
	return orders, nil
}

// ListAll возвращает все заказы для администратора кухни.
func (s *OrderService) ListAll(ctx context.Context, status string) ([]models.Order, error) {
	if status != "" && !isValidOrderStatus(status) {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус заказа")
	}

	orders, err := s.orders.ListAll(ctx, status)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить заказы")
	}
	return orders, nil
}

// ListByDateRange возвращает заказы за интервал дат для администратора.
func (s *OrderService) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	if to.Before(from) {
		return nil, apperror.New(apperror.ErrCodeValidation, "начало интервала позже его конца")
	}

	orders, err := s.orders.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить заказы")
	}
	return orders, nil
}

// Get возвращает заказ. Сотрудник видит только свои заказы,
// администратор кухни — любые.
func (s *OrderService) Get(ctx context.Context, user *models.User, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить заказ")
	}

	if order.UserID != user.ID && !user.IsKitchenAdmin {
		// Чужой заказ выглядит как несуществующий.
		return nil, apperror.ErrOrderNotFound
	}

	return order, nil
}

// Cancel отменяет заказ в статусе pending и возвращает остатки блюд.
func (s *OrderService) Cancel(ctx context.Context, user *models.User, orderID uuid.UUID) error {
	order, err := s.Get(ctx, user, orderID)
	if err != nil {
		return err
	}

	if err := s.orders.Cancel(ctx, order.ID); err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return apperror.ErrOrderNotFound
		case errors.Is(err, repository.ErrOrderNotPending):
			return apperror.New(apperror.ErrCodeConflict, "отменить можно только неоплаченный заказ")
		default:
			return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось отменить заказ")
		}
	}

	s.cache.InvalidateUserCache(order.UserID)
	s.cache.InvalidateDashboardCache()

	s.log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"user_id":  user.ID,
	}).Info("Заказ отменён")

	return nil
}

// MarkFulfilled помечает оплаченный заказ выданным. Только для администратора.
func (s *OrderService) MarkFulfilled(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if err := s.orders.MarkFulfilled(ctx, orderID); err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return nil, apperror.ErrOrderNotFound
		case errors.Is(err, repository.ErrOrderNotPending):
			return nil, apperror.New(apperror.ErrCodeConflict, "выдать можно только оплаченный заказ")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить заказ")
		}
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить заказ")
	}

	s.cache.InvalidateUserCache(order.UserID)
	s.cache.InvalidateDashboardCache()

	return order, nil
}

// Notifications возвращает уведомления администраторов.
func (s *OrderService) Notifications(ctx context.Context, onlyUnread bool, limit int) ([]models.AdminNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	notifications, err := s.notifications.List(ctx, onlyUnread, limit)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить уведомления")
	}
	return notifications, nil
}

// MarkNotificationRead помечает уведомление прочитанным.
func (s *OrderService) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	if err := s.notifications.MarkRead(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить уведомление")
	}
	return nil
}

// MarkAllNotificationsRead помечает все уведомления прочитанными.
func (s *OrderService) MarkAllNotificationsRead(ctx context.Context) error {
	if err := s.notifications.MarkAllRead(ctx); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить уведомления")
	}
	return nil
}

// notifyAdmins сохраняет уведомление и рассылает событие по WebSocket.
// Выполняется в фоне: оформление заказа не ждёт побочных эффектов.
func (s *OrderService) notifyAdmins(ctx context.Context, eventType, title, message string, order *models.Order) {
	orderID := order.ID
	notification := &models.AdminNotification{
		Type:    eventType,
		Title:   title,
		Message: message,
		OrderID: &orderID,
	}

	s.runner.GoWithContext(ctx, func(ctx context.Context) {
		if err := s.notifications.Create(ctx, notification); err != nil {
			s.log.WithError(err).WithField("order_id", orderID).Error("Не удалось сохранить уведомление")
			return
		}
		if s.broadcaster != nil {
			s.broadcaster.Broadcast(eventType, notification)
		}
	})
}

func orderErrorMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrMealUnavailable):
		return "блюдо недоступно для заказа"
	case errors.Is(err, repository.ErrInsufficientStock):
		return "недостаточно порций блюда"
	case errors.Is(err, repository.ErrMaxPerPersonExceeded):
		return "превышен лимит порций на человека"
	default:
		return "не удалось оформить заказ"
	}
}

func isValidOrderStatus(status string) bool {
	switch status {
	case models.OrderStatusPending, models.OrderStatusPaid, models.OrderStatusFulfilled, models.OrderStatusCancelled:
		return true
	}
	return false
}
