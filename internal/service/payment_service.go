package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealdesk/canteen-backend/internal/goroutine"
	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
	"github.com/mealdesk/canteen-backend/internal/repository"
	"github.com/mealdesk/canteen-backend/internal/validation"
)

// PaymentRepo — порт хранилища платежей.
type PaymentRepo interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	ListAll(ctx context.Context, status string) ([]models.Payment, error)
	Verify(ctx context.Context, paymentID, adminID uuid.UUID, confirmed bool, notes string) (*models.Payment, error)
}

// SubmitPaymentInput — данные платежа от сотрудника.
type SubmitPaymentInput struct {
	OrderID         uuid.UUID
	TransactionCode string
	AmountPaid      float64
	PhoneNumber     string
}

// PaymentService реализует приём и проверку платежей.
type PaymentService struct {
	payments      PaymentRepo
	orders        OrderRepo
	notifications NotificationRepo
	cache         *CacheService
	broadcaster   EventBroadcaster
	runner        *goroutine.Runner
	log           *logrus.Entry
}

// NewPaymentService создаёт сервис платежей.
func NewPaymentService(payments PaymentRepo, orders OrderRepo, notifications NotificationRepo, cache *CacheService, broadcaster EventBroadcaster, runner *goroutine.Runner, log *logrus.Entry) *PaymentService {
	return &PaymentService{
		payments:      payments,
		orders:        orders,
		notifications: notifications,
		cache:         cache,
		broadcaster:   broadcaster,
		runner:        runner,
		log:           log,
	}
}

// Submit принимает код транзакции по заказу. Платёж на полную сумму сразу
// переводит заказ в paid, недоплата ждёт проверки администратором.
// Повтор кода транзакции — конфликт.
func (s *PaymentService) Submit(ctx context.Context, user *models.User, input SubmitPaymentInput) (*models.Payment, error) {
	code := strings.ToUpper(strings.TrimSpace(input.TransactionCode))
	if err := validation.ValidateTransactionCode(code); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount(input.AmountPaid); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePhone(input.PhoneNumber); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить заказ")
	}
	if order.UserID != user.ID {
		return nil, apperror.ErrOrderNotFound
	}

	payment := &models.Payment{
		OrderID:         order.ID,
		TransactionCode: code,
		AmountPaid:      input.AmountPaid,
		PhoneNumber:     strings.TrimSpace(input.PhoneNumber),
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateTxCode):
			return nil, apperror.ErrDuplicateTxCode
		case errors.Is(err, repository.ErrOrderNotFound):
			return nil, apperror.ErrOrderNotFound
		case errors.Is(err, repository.ErrOrderNotPending):
			return nil, apperror.New(apperror.ErrCodeConflict, "заказ уже оплачен или отменён")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить платёж")
		}
	}

	s.cache.InvalidateUserCache(user.ID)
	s.cache.InvalidateDashboardCache()

	s.notifyAdmins(ctx, payment, user.Email)

	s.log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"order_id":   order.ID,
		"amount":     payment.AmountPaid,
	}).Info("Платёж принят")

	return payment, nil
}

// Get возвращает платёж по идентификатору. Чужой платёж выглядит как 404.
func (s *PaymentService) Get(ctx context.Context, user *models.User, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить платёж")
	}

	if !user.IsKitchenAdmin {
		order, err := s.orders.GetByID(ctx, payment.OrderID)
		if err != nil {
			if errors.Is(err, repository.ErrOrderNotFound) {
				return nil, apperror.ErrPaymentNotFound
			}
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить заказ")
		}
		if order.UserID != user.ID {
			return nil, apperror.ErrPaymentNotFound
		}
	}

	return payment, nil
}

// GetForOrder возвращает платёж по заказу с проверкой владения.
func (s *PaymentService) GetForOrder(ctx context.Context, user *models.User, orderID uuid.UUID) (*models.Payment, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить заказ")
	}
	if order.UserID != user.ID && !user.IsKitchenAdmin {
		return nil, apperror.ErrOrderNotFound
	}

	payment, err := s.payments.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperror.ErrPaymentNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить платёж")
	}

	return payment, nil
}

// ListAll возвращает платежи для администратора кухни.
func (s *PaymentService) ListAll(ctx context.Context, status string) ([]models.Payment, error) {
	if status != "" && !isValidPaymentStatus(status) {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус платежа")
	}

	payments, err := s.payments.ListAll(ctx, status)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить платежи")
	}
	return payments, nil
}

// Verify выносит решение администратора по платежу. Подтверждение
// пересчитывает статус заказа, отклонение помечает платёж failed.
func (s *PaymentService) Verify(ctx context.Context, admin *models.User, paymentID uuid.UUID, confirmed bool, notes string) (*models.Payment, error) {
	if err := validation.ValidateNotes(notes); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	payment, err := s.payments.Verify(ctx, paymentID, admin.ID, confirmed, strings.TrimSpace(notes))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound):
			return nil, apperror.ErrPaymentNotFound
		case errors.Is(err, repository.ErrPaymentNotPending):
			return nil, apperror.New(apperror.ErrCodeConflict, "платёж уже проверен")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить платёж")
		}
	}

	s.cache.InvalidateDashboardCache()

	s.log.WithFields(logrus.Fields{
		"payment_id": payment.ID,
		"admin_id":   admin.ID,
		"status":     payment.Status,
	}).Info("Платёж проверен")

	return payment, nil
}

// notifyAdmins сохраняет уведомление о платеже и рассылает событие.
func (s *PaymentService) notifyAdmins(ctx context.Context, payment *models.Payment, email string) {
	orderID := payment.OrderID
	notification := &models.AdminNotification{
		Type:    models.NotificationPaymentSubmitted,
		Title:   "Новый платёж",
		Message: fmt.Sprintf("Платёж %.2f по заказу от %s, код %s", payment.AmountPaid, email, payment.TransactionCode),
		OrderID: &orderID,
	}

	s.runner.GoWithContext(ctx, func(ctx context.Context) {
		if err := s.notifications.Create(ctx, notification); err != nil {
			s.log.WithError(err).WithField("payment_id", payment.ID).Error("Не удалось сохранить уведомление")
			return
		}
		if s.broadcaster != nil {
			s.broadcaster.Broadcast(models.NotificationPaymentSubmitted, notification)
		}
	})
}

func isValidPaymentStatus(status string) bool {
	switch status {
	case models.PaymentStatusPending, models.PaymentStatusConfirmed, models.PaymentStatusFailed:
		return true
	}
	return false
}
