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

// CatalogRepo — порт хранилища меню.
type CatalogRepo interface {
	ListCategories(ctx context.Context) ([]models.MealCategory, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.MealCategory, error)
	CreateCategory(ctx context.Context, category *models.MealCategory) error
	UpdateCategory(ctx context.Context, category *models.MealCategory) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	ListMeals(ctx context.Context, categoryID *uuid.UUID, onlyAvailable bool) ([]models.Meal, error)
	GetMealByID(ctx context.Context, id uuid.UUID) (*models.Meal, error)
	CreateMeal(ctx context.Context, meal *models.Meal) error
	UpdateMeal(ctx context.Context, meal *models.Meal) error
	SetMealImage(ctx context.Context, mealID uuid.UUID, imagePath string) error
	DeleteMeal(ctx context.Context, id uuid.UUID) error
}

// CategoryInput — данные категории меню.
type CategoryInput struct {
	Name        string
	Description string
}

// MealInput — данные блюда для создания и редактирования.
type MealInput struct {
	CategoryID     uuid.UUID
	Name           string
	Description    string
	Price          float64
	IsAvailable    bool
	MaxPerPerson   int
	UnitsAvailable *int
}

// CatalogService реализует меню для сотрудников и администраторов.
type CatalogService struct {
	catalog CatalogRepo
	log     *logrus.Entry
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(catalog CatalogRepo, log *logrus.Entry) *CatalogService {
	return &CatalogService{catalog: catalog, log: log}
}

// ListCategories возвращает категории меню.
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.MealCategory, error) {
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить категории")
	}
	return categories, nil
}

// CreateCategory создаёт категорию меню.
func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*models.MealCategory, error) {
	if err := validateCategoryInput(&input); err != nil {
		return nil, err
	}

	category := &models.MealCategory{
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать категорию")
	}

	s.log.WithField("category_id", category.ID).Info("Категория создана")

	return category, nil
}

// UpdateCategory обновляет категорию меню.
func (s *CatalogService) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.MealCategory, error) {
	if err := validateCategoryInput(&input); err != nil {
		return nil, err
	}

	category := &models.MealCategory{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.catalog.UpdateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "категория не найдена")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить категорию")
	}

	return s.getCategory(ctx, id)
}

// DeleteCategory удаляет категорию без блюд.
func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.catalog.DeleteCategory(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrCategoryNotFound):
			return apperror.New(apperror.ErrCodeNotFound, "категория не найдена")
		case errors.Is(err, repository.ErrCategoryInUse):
			return apperror.New(apperror.ErrCodeConflict, "категория содержит блюда")
		default:
			return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить категорию")
		}
	}
	return nil
}

// ListMeals возвращает блюда. Сотрудники видят только доступные,
// администраторы — все.
func (s *CatalogService) ListMeals(ctx context.Context, categoryID *uuid.UUID, includeHidden bool) ([]models.Meal, error) {
	meals, err := s.catalog.ListMeals(ctx, categoryID, !includeHidden)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить меню")
	}
	return meals, nil
}

// GetMeal возвращает блюдо по идентификатору.
func (s *CatalogService) GetMeal(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	meal, err := s.catalog.GetMealByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrMealNotFound) {
			return nil, apperror.ErrMealNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить блюдо")
	}
	return meal, nil
}

// CreateMeal создаёт блюдо.
func (s *CatalogService) CreateMeal(ctx context.Context, input MealInput) (*models.Meal, error) {
	if err := validateMealInput(&input); err != nil {
		return nil, err
	}

	meal := &models.Meal{
		CategoryID:     input.CategoryID,
		Name:           input.Name,
		Description:    input.Description,
		Price:          input.Price,
		IsAvailable:    input.IsAvailable,
		MaxPerPerson:   input.MaxPerPerson,
		UnitsAvailable: input.UnitsAvailable,
	}
	if err := s.catalog.CreateMeal(ctx, meal); err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "категория не найдена")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать блюдо")
	}

	s.log.WithFields(logrus.Fields{
		"meal_id": meal.ID,
		"name":    meal.Name,
	}).Info("Блюдо создано")

	return meal, nil
}

// UpdateMeal обновляет блюдо.
func (s *CatalogService) UpdateMeal(ctx context.Context, id uuid.UUID, input MealInput) (*models.Meal, error) {
	if err := validateMealInput(&input); err != nil {
		return nil, err
	}

	meal := &models.Meal{
		ID:             id,
		CategoryID:     input.CategoryID,
		Name:           input.Name,
		Description:    input.Description,
		Price:          input.Price,
		IsAvailable:    input.IsAvailable,
		MaxPerPerson:   input.MaxPerPerson,
		UnitsAvailable: input.UnitsAvailable,
	}
	if err := s.catalog.UpdateMeal(ctx, meal); err != nil {
		switch {
		case errors.Is(err, repository.ErrMealNotFound):
			return nil, apperror.ErrMealNotFound
		case errors.Is(err, repository.ErrCategoryNotFound):
			return nil, apperror.New(apperror.ErrCodeNotFound, "категория не найдена")
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить блюдо")
		}
	}

	return s.GetMeal(ctx, id)
}

// SetMealImage сохраняет путь к загруженному изображению блюда.
func (s *CatalogService) SetMealImage(ctx context.Context, mealID uuid.UUID, imagePath string) error {
	if err := s.catalog.SetMealImage(ctx, mealID, imagePath); err != nil {
		if errors.Is(err, repository.ErrMealNotFound) {
			return apperror.ErrMealNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить изображение")
	}
	return nil
}

// DeleteMeal скрывает блюдо из меню.
func (s *CatalogService) DeleteMeal(ctx context.Context, id uuid.UUID) error {
	if err := s.catalog.DeleteMeal(ctx, id); err != nil {
		if errors.Is(err, repository.ErrMealNotFound) {
			return apperror.ErrMealNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить блюдо")
	}
	return nil
}

func (s *CatalogService) getCategory(ctx context.Context, id uuid.UUID) (*models.MealCategory, error) {
	category, err := s.catalog.GetCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCategoryNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "категория не найдена")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить категорию")
	}
	return category, nil
}

func validateCategoryInput(input *CategoryInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)

	if err := validation.ValidateLength("название категории", input.Name, 1, validation.MaxCategoryLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", input.Description, 0, validation.MaxDescriptionLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

func validateMealInput(input *MealInput) error {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)

	if err := validation.ValidateLength("название блюда", input.Name, 1, validation.MaxMealNameLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", input.Description, 0, validation.MaxDescriptionLength); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePrice(input.Price); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if input.MaxPerPerson < 1 {
		return apperror.New(apperror.ErrCodeValidation, "лимит порций на человека должен быть не менее 1")
	}
	if input.UnitsAvailable != nil && *input.UnitsAvailable < 0 {
		return apperror.New(apperror.ErrCodeValidation, "остаток порций не может быть отрицательным")
	}
	return nil
}
