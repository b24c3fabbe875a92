package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// Ошибки дней бесплатных обедов.
var (
	ErrFreeMealDayNotFound = errors.New("free meal day not found")
	ErrFreeMealDayExists   = errors.New("free meal day already exists")
)

const freeMealDayColumns = `f.id, f.date, f.reason, f.is_active, f.created_by,
	COALESCE(u.first_name || ' ' || u.last_name, '') AS created_by_name, f.created_at`

// FreeMealRepository отвечает за таблицу free_meal_days.
type FreeMealRepository struct {
	db *sqlx.DB
}

// NewFreeMealRepository создаёт экземпляр репозитория.
func NewFreeMealRepository(db *sqlx.DB) *FreeMealRepository {
	return &FreeMealRepository{db: db}
}

// List возвращает дни бесплатных обедов, ближайшие первыми.
func (r *FreeMealRepository) List(ctx context.Context) ([]models.FreeMealDay, error) {
	days := []models.FreeMealDay{}
	query := `
		SELECT ` + freeMealDayColumns + `
		FROM free_meal_days f
		LEFT JOIN users u ON u.id = f.created_by
		ORDER BY f.date DESC
	`
	if err := r.db.SelectContext(ctx, &days, query); err != nil {
		return nil, fmt.Errorf("free meal repository: list %w", err)
	}
	return days, nil
}

// GetByDate возвращает активный день бесплатных обедов на указанную дату.
func (r *FreeMealRepository) GetByDate(ctx context.Context, date time.Time) (*models.FreeMealDay, error) {
	var day models.FreeMealDay
	query := `
		SELECT ` + freeMealDayColumns + `
		FROM free_meal_days f
		LEFT JOIN users u ON u.id = f.created_by
		WHERE f.date = $1 AND f.is_active
	`
	if err := r.db.GetContext(ctx, &day, query, date.Format("2006-01-02")); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFreeMealDayNotFound
		}
		return nil, fmt.Errorf("free meal repository: get by date %w", err)
	}
	return &day, nil
}

// Create добавляет день бесплатных обедов. Повтор даты — конфликт.
func (r *FreeMealRepository) Create(ctx context.Context, day *models.FreeMealDay) error {
	query := `
		INSERT INTO free_meal_days (date, reason, is_active, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		day.Date.Format("2006-01-02"), day.Reason, day.IsActive, day.CreatedBy).
		Scan(&day.ID, &day.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrFreeMealDayExists
		}
		return fmt.Errorf("free meal repository: create %w", err)
	}
	return nil
}

// Update меняет причину и активность дня. Дата не редактируется:
// вместо переноса день отключают и создают новый.
func (r *FreeMealRepository) Update(ctx context.Context, day *models.FreeMealDay) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE free_meal_days SET reason = $2, is_active = $3 WHERE id = $1`,
		day.ID, day.Reason, day.IsActive)
	if err != nil {
		return fmt.Errorf("free meal repository: update %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("free meal repository: update rows affected %w", err)
	}
	if affected == 0 {
		return ErrFreeMealDayNotFound
	}

	return nil
}

// Delete удаляет день бесплатных обедов.
func (r *FreeMealRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM free_meal_days WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("free meal repository: delete %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("free meal repository: delete rows affected %w", err)
	}
	if affected == 0 {
		return ErrFreeMealDayNotFound
	}

	return nil
}
