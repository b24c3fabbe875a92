package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
	"github.com/mealdesk/canteen-backend/internal/repository"
)

type mockDepartmentRepo struct {
	mock.Mock
}

func (m *mockDepartmentRepo) List(ctx context.Context, onlyActive bool) ([]models.Department, error) {
	args := m.Called(ctx, onlyActive)
	return args.Get(0).([]models.Department), args.Error(1)
}

func (m *mockDepartmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Department), args.Error(1)
}

func (m *mockDepartmentRepo) Create(ctx context.Context, department *models.Department) error {
	args := m.Called(ctx, department)
	return args.Error(0)
}

func (m *mockDepartmentRepo) Update(ctx context.Context, department *models.Department) error {
	args := m.Called(ctx, department)
	return args.Error(0)
}

func (m *mockDepartmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func TestDepartmentService_Create_Success(t *testing.T) {
	departments := new(mockDepartmentRepo)
	svc := NewDepartmentService(departments, testLog())
	ctx := context.Background()

	departments.On("Create", ctx, mock.AnythingOfType("*models.Department")).Return(nil).Run(func(args mock.Arguments) {
		d := args.Get(1).(*models.Department)
		d.ID = uuid.New()
	})

	department, err := svc.Create(ctx, DepartmentInput{Name: "  Бухгалтерия  ", IsActive: true})
	assert.NoError(t, err)
	assert.Equal(t, "Бухгалтерия", department.Name)
	departments.AssertExpectations(t)
}

func TestDepartmentService_Create_NameTaken(t *testing.T) {
	departments := new(mockDepartmentRepo)
	svc := NewDepartmentService(departments, testLog())
	ctx := context.Background()

	departments.On("Create", ctx, mock.AnythingOfType("*models.Department")).Return(repository.ErrDepartmentNameTaken)

	_, err := svc.Create(ctx, DepartmentInput{Name: "Бухгалтерия", IsActive: true})
	assert.True(t, apperror.IsConflict(err))
}

func TestDepartmentService_Create_EmptyName(t *testing.T) {
	svc := NewDepartmentService(new(mockDepartmentRepo), testLog())

	_, err := svc.Create(context.Background(), DepartmentInput{Name: "   "})
	assert.True(t, apperror.IsValidation(err))
}

func TestDepartmentService_Update_NotFound(t *testing.T) {
	departments := new(mockDepartmentRepo)
	svc := NewDepartmentService(departments, testLog())
	ctx := context.Background()

	id := uuid.New()
	departments.On("GetByID", ctx, id).Return(nil, repository.ErrDepartmentNotFound)

	_, err := svc.Update(ctx, id, DepartmentInput{Name: "Кухня"})
	assert.True(t, apperror.IsNotFound(err))
}

func TestDepartmentService_List_OnlyActiveFlag(t *testing.T) {
	departments := new(mockDepartmentRepo)
	svc := NewDepartmentService(departments, testLog())
	ctx := context.Background()

	departments.On("List", ctx, true).Return([]models.Department{{Name: "Кухня"}}, nil)

	got, err := svc.List(ctx, true)
	assert.NoError(t, err)
	assert.Len(t, got, 1)
	departments.AssertExpectations(t)
}
