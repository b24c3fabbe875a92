package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
	"github.com/mealdesk/canteen-backend/internal/repository"
	"github.com/mealdesk/canteen-backend/internal/validation"
)

// DepartmentRepo — порт хранилища отделов.
type DepartmentRepo interface {
	List(ctx context.Context, onlyActive bool) ([]models.Department, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DepartmentInput — данные отдела из запроса администратора.
type DepartmentInput struct {
	Name        string
	Description string
	IsActive    bool
}

// DepartmentService реализует справочник отделов.
type DepartmentService struct {
	departments DepartmentRepo
	log         *logrus.Entry
}

// NewDepartmentService создаёт сервис отделов.
func NewDepartmentService(departments DepartmentRepo, log *logrus.Entry) *DepartmentService {
	return &DepartmentService{departments: departments, log: log}
}

// List возвращает отделы. Сотрудникам показываются только активные,
// администратор видит все.
func (s *DepartmentService) List(ctx context.Context, onlyActive bool) ([]models.Department, error) {
	departments, err := s.departments.List(ctx, onlyActive)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить отделы")
	}
	return departments, nil
}

// Create добавляет отдел.
func (s *DepartmentService) Create(ctx context.Context, input DepartmentInput) (*models.Department, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	department := &models.Department{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    input.IsActive,
	}

	if err := s.departments.Create(ctx, department); err != nil {
		if errors.Is(err, repository.ErrDepartmentNameTaken) {
			return nil, apperror.New(apperror.ErrCodeConflict, "отдел с таким названием уже существует")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать отдел")
	}

	s.log.WithField("department_id", department.ID).Info("Отдел создан")

	return department, nil
}

// Update обновляет отдел.
func (s *DepartmentService) Update(ctx context.Context, id uuid.UUID, input DepartmentInput) (*models.Department, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	department, err := s.departments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDepartmentNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "отдел не найден")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить отдел")
	}

	department.Name = input.Name
	department.Description = input.Description
	department.IsActive = input.IsActive

	if err := s.departments.Update(ctx, department); err != nil {
		switch {
		case errors.Is(err, repository.ErrDepartmentNotFound):
			return nil, apperror.New(apperror.ErrCodeNotFound, "отдел не найден")
		case errors.Is(err, repository.ErrDepartmentNameTaken):
			return nil, apperror.New(apperror.ErrCodeConflict, "отдел с таким названием уже существует")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить отдел")
		}
	}

	return department, nil
}

// Delete удаляет отдел.
func (s *DepartmentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.departments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrDepartmentNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "отдел не найден")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить отдел")
	}
	return nil
}

func (s *DepartmentService) validate(input *DepartmentInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)

	if err := validation.ValidateLength("название отдела", input.Name, 1, validation.MaxDepartmentLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateNotes(input.Description); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return nil
}
