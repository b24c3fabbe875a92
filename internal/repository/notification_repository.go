package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// ErrNotificationNotFound возвращается, когда уведомление не найдено.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository отвечает за таблицу admin_notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository создаёт экземпляр репозитория.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create сохраняет новое уведомление.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.AdminNotification) error {
	query := `
		INSERT INTO admin_notifications (type, title, message, order_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_read, created_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		notification.Type, notification.Title, notification.Message, notification.OrderID,
	).Scan(&notification.ID, &notification.IsRead, &notification.CreatedAt); err != nil {
		return fmt.Errorf("notification repository: create %w", err)
	}
	return nil
}

// List возвращает уведомления, новые первыми.
func (r *NotificationRepository) List(ctx context.Context, onlyUnread bool, limit int) ([]models.AdminNotification, error) {
	notifications := []models.AdminNotification{}
	query := `SELECT id, type, title, message, order_id, is_read, created_at FROM admin_notifications`
	if onlyUnread {
		query += ` WHERE is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	if err := r.db.SelectContext(ctx, &notifications, query, limit); err != nil {
		return nil, fmt.Errorf("notification repository: list %w", err)
	}
	return notifications, nil
}

// MarkRead помечает уведомление прочитанным.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE admin_notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("notification repository: mark read %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("notification repository: mark read rows affected %w", err)
	}
	if affected == 0 {
		return ErrNotificationNotFound
	}

	return nil
}

// MarkAllRead помечает все уведомления прочитанными.
func (r *NotificationRepository) MarkAllRead(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE admin_notifications SET is_read = TRUE WHERE is_read = FALSE`); err != nil {
		return fmt.Errorf("notification repository: mark all read %w", err)
	}
	return nil
}
