package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mealdesk/canteen-backend/internal/goroutine"
	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
	"github.com/mealdesk/canteen-backend/internal/repository"
)

func newOrderService(orders *mockOrderRepo, users *mockUserRepo, notifications *mockNotificationRepo) *OrderService {
	return NewOrderService(orders, users, notifications, NewCacheService(), nil, goroutine.NewRunner(testLog()), testLog())
}

func TestOrderService_Create_Success(t *testing.T) {
	orders := new(mockOrderRepo)
	notifications := new(mockNotificationRepo)
	svc := newOrderService(orders, new(mockUserRepo), notifications)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "ivan@example.com"}
	mealID := uuid.New()
	expected := &models.Order{
		ID:          uuid.New(),
		UserID:      user.ID,
		Status:      models.OrderStatusPending,
		TotalAmount: 300,
		Items: []models.OrderItem{
			{MealID: mealID, Quantity: 2, PricePerItem: 150, Subtotal: 300},
		},
	}

	orders.On("CreateOrder", ctx, user.ID, "без лука", false,
		[]repository.OrderItemRequest{{MealID: mealID, Quantity: 2}}).Return(expected, nil)
	notifications.On("Create", mock.Anything, mock.AnythingOfType("*models.AdminNotification")).Return(nil).Maybe()

	order, err := svc.Create(ctx, user, "без лука", []OrderItemInput{{MealID: mealID, Quantity: 2}})
	assert.NoError(t, err)
	assert.Equal(t, expected, order)
	orders.AssertExpectations(t)
}

func TestOrderService_Create_EmptyItems(t *testing.T) {
	svc := newOrderService(new(mockOrderRepo), new(mockUserRepo), new(mockNotificationRepo))

	_, err := svc.Create(context.Background(), &models.User{ID: uuid.New()}, "", nil)
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_Create_ZeroQuantity(t *testing.T) {
	svc := newOrderService(new(mockOrderRepo), new(mockUserRepo), new(mockNotificationRepo))

	_, err := svc.Create(context.Background(), &models.User{ID: uuid.New()}, "",
		[]OrderItemInput{{MealID: uuid.New(), Quantity: 0}})
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_Create_DuplicateMeal(t *testing.T) {
	svc := newOrderService(new(mockOrderRepo), new(mockUserRepo), new(mockNotificationRepo))

	mealID := uuid.New()
	_, err := svc.Create(context.Background(), &models.User{ID: uuid.New()}, "",
		[]OrderItemInput{{MealID: mealID, Quantity: 1}, {MealID: mealID, Quantity: 2}})
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_Create_InsufficientStock(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserRepo), new(mockNotificationRepo))
	ctx := context.Background()

	user := &models.User{ID: uuid.New()}
	mealID := uuid.New()

	orders.On("CreateOrder", ctx, user.ID, "", false, mock.Anything).Return(nil, repository.ErrInsufficientStock)

	_, err := svc.Create(ctx, user, "", []OrderItemInput{{MealID: mealID, Quantity: 5}})
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_Create_FreeMealDay(t *testing.T) {
	orders := new(mockOrderRepo)
	notifications := new(mockNotificationRepo)
	svc := newOrderService(orders, new(mockUserRepo), notifications)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "ivan@example.com"}
	mealID := uuid.New()
	// В бесплатный день хранилище возвращает оплаченный заказ с нулевой
	// суммой; цены позиций остаются каталожными.
	created := &models.Order{
		ID:          uuid.New(),
		UserID:      user.ID,
		Status:      models.OrderStatusPaid,
		TotalAmount: 0,
		IsFreeMeal:  true,
		Items: []models.OrderItem{
			{MealID: mealID, Quantity: 1, PricePerItem: 150, Subtotal: 150},
		},
	}

	orders.On("CreateOrder", ctx, user.ID, "", false, mock.Anything).Return(created, nil)
	notifications.On("Create", mock.Anything, mock.AnythingOfType("*models.AdminNotification")).Return(nil).Maybe()

	order, err := svc.Create(ctx, user, "", []OrderItemInput{{MealID: mealID, Quantity: 1}})
	assert.NoError(t, err)
	assert.True(t, order.IsFreeMeal)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.Zero(t, order.TotalAmount)
}

func TestOrderService_CreateForUser_Success(t *testing.T) {
	orders := new(mockOrderRepo)
	users := new(mockUserRepo)
	notifications := new(mockNotificationRepo)
	svc := newOrderService(orders, users, notifications)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "ivan@example.com"}
	mealID := uuid.New()
	created := &models.Order{ID: uuid.New(), UserID: user.ID, Status: models.OrderStatusPending, TotalAmount: 150, IsAdminCreated: true}

	users.On("GetByEmail", ctx, user.Email).Return(user, nil)
	orders.On("CreateOrder", ctx, user.ID, "", true, mock.Anything).Return(created, nil)
	notifications.On("Create", mock.Anything, mock.AnythingOfType("*models.AdminNotification")).Return(nil).Maybe()

	order, err := svc.CreateForUser(ctx, "Ivan@Example.com", "", []OrderItemInput{{MealID: mealID, Quantity: 1}})
	assert.NoError(t, err)
	assert.True(t, order.IsAdminCreated)
	orders.AssertExpectations(t)
}

func TestOrderService_CreateForUser_UnknownEmail(t *testing.T) {
	orders := new(mockOrderRepo)
	users := new(mockUserRepo)
	svc := newOrderService(orders, users, new(mockNotificationRepo))
	ctx := context.Background()

	users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound)

	_, err := svc.CreateForUser(ctx, "ghost@example.com", "", []OrderItemInput{{MealID: uuid.New(), Quantity: 1}})
	assert.True(t, apperror.IsNotFound(err))
	orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_ListByDateRange_InvalidRange(t *testing.T) {
	svc := newOrderService(new(mockOrderRepo), new(mockUserRepo), new(mockNotificationRepo))

	from := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.ListByDateRange(context.Background(), from, to)
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_Get_OwnershipRules(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserRepo), new(mockNotificationRepo))
	ctx := context.Background()

	owner := &models.User{ID: uuid.New()}
	admin := &models.User{ID: uuid.New(), IsKitchenAdmin: true}
	stranger := &models.User{ID: uuid.New()}
	order := &models.Order{ID: uuid.New(), UserID: owner.ID, Status: models.OrderStatusPending}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	got, err := svc.Get(ctx, owner, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, order, got)

	got, err = svc.Get(ctx, admin, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, order, got)

	_, err = svc.Get(ctx, stranger, order.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestOrderService_Cancel_Success(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserRepo), new(mockNotificationRepo))
	ctx := context.Background()

	owner := &models.User{ID: uuid.New()}
	order := &models.Order{ID: uuid.New(), UserID: owner.ID, Status: models.OrderStatusPending}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	orders.On("Cancel", ctx, order.ID).Return(nil)

	err := svc.Cancel(ctx, owner, order.ID)
	assert.NoError(t, err)
	orders.AssertExpectations(t)
}

func TestOrderService_Cancel_NotPending(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserRepo), new(mockNotificationRepo))
	ctx := context.Background()

	owner := &models.User{ID: uuid.New()}
	order := &models.Order{ID: uuid.New(), UserID: owner.ID, Status: models.OrderStatusPaid}

	orders.On("GetByID", ctx, order.ID).Return(order, nil)
	orders.On("Cancel", ctx, order.ID).Return(repository.ErrOrderNotPending)

	err := svc.Cancel(ctx, owner, order.ID)
	assert.True(t, apperror.IsConflict(err))
}

func TestOrderService_MarkFulfilled_Success(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserRepo), new(mockNotificationRepo))
	ctx := context.Background()

	order := &models.Order{ID: uuid.New(), UserID: uuid.New(), Status: models.OrderStatusFulfilled}

	orders.On("MarkFulfilled", ctx, order.ID).Return(nil)
	orders.On("GetByID", ctx, order.ID).Return(order, nil)

	got, err := svc.MarkFulfilled(ctx, order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, got.Status)
}

func TestOrderService_MarkFulfilled_NotPaid(t *testing.T) {
	orders := new(mockOrderRepo)
	svc := newOrderService(orders, new(mockUserRepo), new(mockNotificationRepo))
	ctx := context.Background()

	orderID := uuid.New()
	orders.On("MarkFulfilled", ctx, orderID).Return(repository.ErrOrderNotPending)

	_, err := svc.MarkFulfilled(ctx, orderID)
	assert.True(t, apperror.IsConflict(err))
}

func TestOrderService_ListAll_UnknownStatus(t *testing.T) {
	svc := newOrderService(new(mockOrderRepo), new(mockUserRepo), new(mockNotificationRepo))

	_, err := svc.ListAll(context.Background(), "shipped")
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_Create_NotifiesAdmins(t *testing.T) {
	orders := new(mockOrderRepo)
	notifications := new(mockNotificationRepo)
	svc := newOrderService(orders, new(mockUserRepo), notifications)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Email: "ivan@example.com"}
	mealID := uuid.New()
	created := &models.Order{ID: uuid.New(), UserID: user.ID, Status: models.OrderStatusPending, TotalAmount: 150}

	done := make(chan struct{})
	orders.On("CreateOrder", ctx, user.ID, "", false, mock.Anything).Return(created, nil)
	notifications.On("Create", mock.Anything, mock.AnythingOfType("*models.AdminNotification")).
		Return(nil).
		Run(func(args mock.Arguments) {
			n := args.Get(1).(*models.AdminNotification)
			assert.Equal(t, models.NotificationNewOrder, n.Type)
			assert.Equal(t, created.ID, *n.OrderID)
			close(done)
		})

	_, err := svc.Create(ctx, user, "", []OrderItemInput{{MealID: mealID, Quantity: 1}})
	assert.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("уведомление не было создано")
	}
}
