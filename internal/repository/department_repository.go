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

// Ошибки отделов.
var (
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrDepartmentNameTaken = errors.New("department name taken")
)

const departmentColumns = `d.id, d.name, d.description, d.is_active, d.created_at, d.updated_at,
	(SELECT COUNT(*) FROM users u
	 WHERE u.department = d.name AND NOT u.is_kitchen_admin) AS employees_count`

// DepartmentRepository отвечает за таблицу departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository создаёт экземпляр репозитория.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List возвращает отделы с числом сотрудников. Администраторы кухни
// в подсчёт не входят.
func (r *DepartmentRepository) List(ctx context.Context, onlyActive bool) ([]models.Department, error) {
	departments := []models.Department{}
	query := `SELECT ` + departmentColumns + ` FROM departments d`
	if onlyActive {
		query += ` WHERE d.is_active`
	}
	query += ` ORDER BY d.name`

	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("department repository: list %w", err)
	}
	return departments, nil
}

// GetByID возвращает отдел по идентификатору.
func (r *DepartmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Department, error) {
	var department models.Department
	query := `SELECT ` + departmentColumns + ` FROM departments d WHERE d.id = $1`
	if err := r.db.GetContext(ctx, &department, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("department repository: get by id %w", err)
	}
	return &department, nil
}

// Create создаёт отдел. Повтор имени — конфликт.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	query := `
		INSERT INTO departments (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		department.Name, department.Description, department.IsActive).
		Scan(&department.ID, &department.CreatedAt, &department.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDepartmentNameTaken
		}
		return fmt.Errorf("department repository: create %w", err)
	}
	return nil
}

// Update обновляет имя, описание и активность отдела.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	query := `
		UPDATE departments
		SET name = $2, description = $3, is_active = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		department.ID, department.Name, department.Description, department.IsActive).
		Scan(&department.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDepartmentNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDepartmentNameTaken
		}
		return fmt.Errorf("department repository: update %w", err)
	}
	return nil
}

// Delete удаляет отдел. Записи пользователей хранят название отдела
// текстом, поэтому удаление отдела их не трогает.
func (r *DepartmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("department repository: delete %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("department repository: delete rows affected %w", err)
	}
	if affected == 0 {
		return ErrDepartmentNotFound
	}

	return nil
}
