package service

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mealdesk/canteen-backend/internal/goroutine"
	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
	"github.com/mealdesk/canteen-backend/internal/repository"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log.WithField("component", "test")
}

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) ListAll(ctx context.Context, status string) ([]models.Payment, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) Verify(ctx context.Context, paymentID, adminID uuid.UUID, confirmed bool, notes string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID, adminID, confirmed, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, userID uuid.UUID, notes string, adminCreated bool, items []repository.OrderItemRequest) (*models.Order, error) {
	args := m.Called(ctx, userID, notes, adminCreated, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListAll(ctx context.Context, status string) ([]models.Order, error) {
	args := m.Called(ctx, status)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) Cancel(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *mockOrderRepo) MarkFulfilled(ctx context.Context, orderID uuid.UUID) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.AdminNotification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *mockNotificationRepo) List(ctx context.Context, onlyUnread bool, limit int) ([]models.AdminNotification, error) {
	args := m.Called(ctx, onlyUnread, limit)
	return args.Get(0).([]models.AdminNotification), args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newPaymentService(payments *mockPaymentRepo, orders *mockOrderRepo, notifications *mockNotificationRepo) *PaymentService {
	return NewPaymentService(payments, orders, notifications, NewCacheService(), nil, goroutine.NewRunner(testLog()), testLog())
}

func TestPaymentService_Submit_Success(t *testing.T) {
	payments := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	notifications := new(mockNotificationRepo)
	svc := newPaymentService(payments, orders, notifications)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "ivan@example.com"}
	order := &models.Order{ID: uuid.New(), UserID: user.ID, Status: models.OrderStatusPending, TotalAmount: 450}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).Return(nil).Run(func(args mock.Arguments) {
		p := args.Get(1).(*models.Payment)
		p.ID = uuid.New()
		p.Status = models.PaymentStatusConfirmed
	})
	notifications.On("Create", mock.Anything, mock.AnythingOfType("*models.AdminNotification")).Return(nil).Maybe()

	payment, err := svc.Submit(ctx, user, SubmitPaymentInput{
		OrderID:         order.ID,
		TransactionCode: "qx12ab34cd",
		AmountPaid:      450,
		PhoneNumber:     "+254700111222",
	})

	assert.NoError(t, err)
	assert.Equal(t, "QX12AB34CD", payment.TransactionCode)
	assert.Equal(t, models.PaymentStatusConfirmed, payment.Status)
	payments.AssertExpectations(t)
}

func TestPaymentService_Submit_DuplicateCode(t *testing.T) {
	payments := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	svc := newPaymentService(payments, orders, new(mockNotificationRepo))
	ctx := context.Background()

	user := &models.User{ID: uuid.New()}
	order := &models.Order{ID: uuid.New(), UserID: user.ID, Status: models.OrderStatusPending}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).Return(repository.ErrDuplicateTxCode)

	_, err := svc.Submit(ctx, user, SubmitPaymentInput{
		OrderID:         order.ID,
		TransactionCode: "QX12AB34CD",
		AmountPaid:      450,
	})

	assert.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
}

func TestPaymentService_Submit_ForeignOrder(t *testing.T) {
	payments := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	svc := newPaymentService(payments, orders, new(mockNotificationRepo))
	ctx := context.Background()

	user := &models.User{ID: uuid.New()}
	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), Status: models.OrderStatusPending}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	_, err := svc.Submit(ctx, user, SubmitPaymentInput{
		OrderID:         order.ID,
		TransactionCode: "QX12AB34CD",
		AmountPaid:      450,
	})

	// Чужой заказ выглядит как несуществующий.
	assert.True(t, apperror.IsNotFound(err))
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_Submit_InvalidCode(t *testing.T) {
	svc := newPaymentService(new(mockPaymentRepo), new(mockOrderRepo), new(mockNotificationRepo))

	_, err := svc.Submit(context.Background(), &models.User{ID: uuid.New()}, SubmitPaymentInput{
		OrderID:         uuid.New(),
		TransactionCode: "short",
		AmountPaid:      100,
	})

	assert.True(t, apperror.IsValidation(err))
}

func TestPaymentService_Submit_OrderAlreadyPaid(t *testing.T) {
	payments := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	svc := newPaymentService(payments, orders, new(mockNotificationRepo))
	ctx := context.Background()

	user := &models.User{ID: uuid.New()}
	order := &models.Order{ID: uuid.New(), UserID: user.ID, Status: models.OrderStatusPaid}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	payments.On("Create", ctx, mock.AnythingOfType("*models.Payment")).Return(repository.ErrOrderNotPending)

	_, err := svc.Submit(ctx, user, SubmitPaymentInput{
		OrderID:         order.ID,
		TransactionCode: "QX12AB34CD",
		AmountPaid:      450,
	})

	assert.True(t, apperror.IsConflict(err))
}

func TestPaymentService_Verify_Confirmed(t *testing.T) {
	payments := new(mockPaymentRepo)
	svc := newPaymentService(payments, new(mockOrderRepo), new(mockNotificationRepo))
	ctx := context.Background()

	admin := &models.User{ID: uuid.New(), IsKitchenAdmin: true}
	paymentID := uuid.New()
	expected := &models.Payment{ID: paymentID, Status: models.PaymentStatusConfirmed, VerifiedBy: &admin.ID}

	payments.On("Verify", ctx, paymentID, admin.ID, true, "всё сходится").Return(expected, nil)

	payment, err := svc.Verify(ctx, admin, paymentID, true, "всё сходится")
	assert.NoError(t, err)
	assert.Equal(t, models.PaymentStatusConfirmed, payment.Status)
	payments.AssertExpectations(t)
}

func TestPaymentService_Verify_AlreadyVerified(t *testing.T) {
	payments := new(mockPaymentRepo)
	svc := newPaymentService(payments, new(mockOrderRepo), new(mockNotificationRepo))
	ctx := context.Background()

	admin := &models.User{ID: uuid.New(), IsKitchenAdmin: true}
	paymentID := uuid.New()

	payments.On("Verify", ctx, paymentID, admin.ID, false, "").Return(nil, repository.ErrPaymentNotPending)

	_, err := svc.Verify(ctx, admin, paymentID, false, "")
	assert.True(t, apperror.IsConflict(err))
}

func TestPaymentService_GetForOrder_OwnerAndAdmin(t *testing.T) {
	payments := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	svc := newPaymentService(payments, orders, new(mockNotificationRepo))
	ctx := context.Background()

	owner := &models.User{ID: uuid.New()}
	admin := &models.User{ID: uuid.New(), IsKitchenAdmin: true}
	stranger := &models.User{ID: uuid.New()}
	order := &models.Order{ID: uuid.New(), UserID: owner.ID}
	expected := &models.Payment{ID: uuid.New(), OrderID: order.ID}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	payments.On("GetByOrderID", ctx, order.ID).Return(expected, nil)

	payment, err := svc.GetForOrder(ctx, owner, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, expected, payment)

	payment, err = svc.GetForOrder(ctx, admin, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, expected, payment)

	_, err = svc.GetForOrder(ctx, stranger, order.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPaymentService_Get_OwnershipRules(t *testing.T) {
	payments := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	svc := newPaymentService(payments, orders, new(mockNotificationRepo))
	ctx := context.Background()

	owner := &models.User{ID: uuid.New()}
	admin := &models.User{ID: uuid.New(), IsKitchenAdmin: true}
	stranger := &models.User{ID: uuid.New()}
	order := &models.Order{ID: uuid.New(), UserID: owner.ID}
	expected := &models.Payment{ID: uuid.New(), OrderID: order.ID}

	payments.On("GetByID", ctx, expected.ID).Return(expected, nil)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	payment, err := svc.Get(ctx, owner, expected.ID)
	assert.NoError(t, err)
	assert.Equal(t, expected, payment)

	payment, err = svc.Get(ctx, admin, expected.ID)
	assert.NoError(t, err)
	assert.Equal(t, expected, payment)

	_, err = svc.Get(ctx, stranger, expected.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestPaymentService_ListAll_UnknownStatus(t *testing.T) {
	svc := newPaymentService(new(mockPaymentRepo), new(mockOrderRepo), new(mockNotificationRepo))

	_, err := svc.ListAll(context.Background(), "unknown")
	assert.True(t, apperror.IsValidation(err))
}
