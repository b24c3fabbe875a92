package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// ErrCategoryNotFound возвращается, когда категория не найдена.
var ErrCategoryNotFound = errors.New("category not found")

// ErrMealNotFound возвращается, когда блюдо не найдено.
var ErrMealNotFound = errors.New("meal not found")

// ErrCategoryInUse возвращается при удалении категории, на которую ссылаются блюда.
var ErrCategoryInUse = errors.New("category has meals")

const mealColumns = `m.id, m.category_id, c.name AS category_name, m.name, m.description, m.price,
	m.image_path, m.is_available, m.max_per_person, m.units_available, m.created_at, m.updated_at`

// CatalogRepository отвечает за таблицы meal_categories и meals.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository создаёт экземпляр репозитория.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListCategories возвращает все категории меню.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]models.MealCategory, error) {
	categories := []models.MealCategory{}
	query := `SELECT id, name, description, created_at FROM meal_categories ORDER BY name`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("catalog repository: list categories %w", err)
	}
	return categories, nil
}

// GetCategoryByID возвращает категорию по идентификатору.
func (r *CatalogRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*models.MealCategory, error) {
	var category models.MealCategory
	query := `SELECT id, name, description, created_at FROM meal_categories WHERE id = $1`
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("catalog repository: get category %w", err)
	}
	return &category, nil
}

// CreateCategory создаёт новую категорию меню.
func (r *CatalogRepository) CreateCategory(ctx context.Context, category *models.MealCategory) error {
	query := `
		INSERT INTO meal_categories (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, category.Name, category.Description).
		Scan(&category.ID, &category.CreatedAt); err != nil {
		return fmt.Errorf("catalog repository: create category %w", err)
	}
	return nil
}

// UpdateCategory обновляет имя и описание категории.
func (r *CatalogRepository) UpdateCategory(ctx context.Context, category *models.MealCategory) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE meal_categories SET name = $2, description = $3 WHERE id = $1`,
		category.ID, category.Name, category.Description)
	if err != nil {
		return fmt.Errorf("catalog repository: update category %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog repository: update category rows affected %w", err)
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// DeleteCategory удаляет категорию. Категория с блюдами не удаляется.
func (r *CatalogRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM meal_categories WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrCategoryInUse
		}
		return fmt.Errorf("catalog repository: delete category %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog repository: delete category rows affected %w", err)
	}
	if affected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// ListMeals возвращает блюда с необязательными фильтрами по категории и доступности.
func (r *CatalogRepository) ListMeals(ctx context.Context, categoryID *uuid.UUID, onlyAvailable bool) ([]models.Meal, error) {
	meals := []models.Meal{}
	query := `SELECT ` + mealColumns + ` FROM meals m JOIN meal_categories c ON c.id = m.category_id`

	args := []interface{}{}
	where := []string{}
	if categoryID != nil {
		args = append(args, *categoryID)
		where = append(where, fmt.Sprintf("m.category_id = $%d", len(args)))
	}
	if onlyAvailable {
		where = append(where, "m.is_available = TRUE")
	}
	for i, cond := range where {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY c.name, m.name"

	if err := r.db.SelectContext(ctx, &meals, query, args...); err != nil {
		return nil, fmt.Errorf("catalog repository: list meals %w", err)
	}

	return meals, nil
}

// GetMealByID возвращает блюдо по идентификатору.
func (r *CatalogRepository) GetMealByID(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	var meal models.Meal
	query := `SELECT ` + mealColumns + ` FROM meals m JOIN meal_categories c ON c.id = m.category_id WHERE m.id = $1`
	if err := r.db.GetContext(ctx, &meal, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMealNotFound
		}
		return nil, fmt.Errorf("catalog repository: get meal %w", err)
	}
	return &meal, nil
}

// CreateMeal создаёт новое блюдо.
func (r *CatalogRepository) CreateMeal(ctx context.Context, meal *models.Meal) error {
	query := `
		INSERT INTO meals (category_id, name, description, price, is_available, max_per_person, units_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		meal.CategoryID, meal.Name, meal.Description, meal.Price,
		meal.IsAvailable, meal.MaxPerPerson, meal.UnitsAvailable,
	).Scan(&meal.ID, &meal.CreatedAt, &meal.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("catalog repository: create meal %w", err)
	}
	return nil
}

// UpdateMeal обновляет все редактируемые поля блюда.
func (r *CatalogRepository) UpdateMeal(ctx context.Context, meal *models.Meal) error {
	query := `
		UPDATE meals
		SET category_id = $2, name = $3, description = $4, price = $5,
		    is_available = $6, max_per_person = $7, units_available = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		meal.ID, meal.CategoryID, meal.Name, meal.Description, meal.Price,
		meal.IsAvailable, meal.MaxPerPerson, meal.UnitsAvailable,
	).Scan(&meal.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrMealNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("catalog repository: update meal %w", err)
	}
	return nil
}

// SetMealImage сохраняет путь к изображению блюда.
func (r *CatalogRepository) SetMealImage(ctx context.Context, mealID uuid.UUID, imagePath string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE meals SET image_path = $2, updated_at = NOW() WHERE id = $1`, mealID, imagePath)
	if err != nil {
		return fmt.Errorf("catalog repository: set meal image %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog repository: set meal image rows affected %w", err)
	}
	if affected == 0 {
		return ErrMealNotFound
	}

	return nil
}

// DeleteMeal скрывает блюдо из меню. Строки заказов ссылаются на блюда,
// поэтому вместо физического удаления блюдо помечается недоступным.
func (r *CatalogRepository) DeleteMeal(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE meals SET is_available = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog repository: delete meal %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog repository: delete meal rows affected %w", err)
	}
	if affected == 0 {
		return ErrMealNotFound
	}

	return nil
}

// CountActiveMeals возвращает число доступных блюд.
func (r *CatalogRepository) CountActiveMeals(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM meals WHERE is_available = TRUE`); err != nil {
		return 0, fmt.Errorf("catalog repository: count active meals %w", err)
	}
	return count, nil
}
