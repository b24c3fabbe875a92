package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
	"github.com/mealdesk/canteen-backend/internal/repository"
)

type mockFreeMealRepo struct {
	mock.Mock
}

func (m *mockFreeMealRepo) List(ctx context.Context) ([]models.FreeMealDay, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.FreeMealDay), args.Error(1)
}

func (m *mockFreeMealRepo) GetByDate(ctx context.Context, date time.Time) (*models.FreeMealDay, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FreeMealDay), args.Error(1)
}

func (m *mockFreeMealRepo) Create(ctx context.Context, day *models.FreeMealDay) error {
	args := m.Called(ctx, day)
	return args.Error(0)
}

func (m *mockFreeMealRepo) Update(ctx context.Context, day *models.FreeMealDay) error {
	args := m.Called(ctx, day)
	return args.Error(0)
}

func (m *mockFreeMealRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestFreeMealService_CheckToday_FreeDay(t *testing.T) {
	days := new(mockFreeMealRepo)
	svc := NewFreeMealService(days, testLog())
	ctx := context.Background()

	days.On("GetByDate", ctx, mock.AnythingOfType("time.Time")).
		Return(&models.FreeMealDay{ID: uuid.New(), Reason: "день компании", IsActive: true}, nil)

	today, err := svc.CheckToday(ctx)
	assert.NoError(t, err)
	assert.True(t, today.IsFreeMealDay)
	assert.Equal(t, "день компании", today.Reason)
}

func TestFreeMealService_CheckToday_RegularDay(t *testing.T) {
	days := new(mockFreeMealRepo)
	svc := NewFreeMealService(days, testLog())
	ctx := context.Background()

	days.On("GetByDate", ctx, mock.AnythingOfType("time.Time")).
		Return(nil, repository.ErrFreeMealDayNotFound)

	today, err := svc.CheckToday(ctx)
	assert.NoError(t, err)
	assert.False(t, today.IsFreeMealDay)
}

func TestFreeMealService_Create_Success(t *testing.T) {
	days := new(mockFreeMealRepo)
	svc := NewFreeMealService(days, testLog())
	ctx := context.Background()

	admin := &models.User{ID: uuid.New(), IsKitchenAdmin: true}
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	days.On("Create", ctx, mock.AnythingOfType("*models.FreeMealDay")).Return(nil).Run(func(args mock.Arguments) {
		d := args.Get(1).(*models.FreeMealDay)
		d.ID = uuid.New()
		assert.Equal(t, admin.ID, *d.CreatedBy)
	})

	day, err := svc.Create(ctx, admin, FreeMealDayInput{Date: date, Reason: "праздник", IsActive: true})
	assert.NoError(t, err)
	assert.Equal(t, date, day.Date)
	days.AssertExpectations(t)
}

func TestFreeMealService_Create_DuplicateDate(t *testing.T) {
	days := new(mockFreeMealRepo)
	svc := NewFreeMealService(days, testLog())
	ctx := context.Background()

	admin := &models.User{ID: uuid.New(), IsKitchenAdmin: true}
	days.On("Create", ctx, mock.AnythingOfType("*models.FreeMealDay")).Return(repository.ErrFreeMealDayExists)

	_, err := svc.Create(ctx, admin, FreeMealDayInput{
		Date:     time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		IsActive: true,
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestFreeMealService_Create_MissingDate(t *testing.T) {
	svc := NewFreeMealService(new(mockFreeMealRepo), testLog())

	_, err := svc.Create(context.Background(), &models.User{ID: uuid.New()}, FreeMealDayInput{})
	assert.True(t, apperror.IsValidation(err))
}

func TestFreeMealService_Update_NotFound(t *testing.T) {
	days := new(mockFreeMealRepo)
	svc := NewFreeMealService(days, testLog())
	ctx := context.Background()

	days.On("Update", ctx, mock.AnythingOfType("*models.FreeMealDay")).Return(repository.ErrFreeMealDayNotFound)

	_, err := svc.Update(ctx, uuid.New(), "", false)
	assert.True(t, apperror.IsNotFound(err))
}
