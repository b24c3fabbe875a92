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

// Ошибки платежей.
var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrDuplicateTxCode   = errors.New("transaction code already used")
	ErrPaymentNotPending = errors.New("payment is not pending")
)

// PaymentRepository отвечает за таблицу payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository создаёт экземпляр репозитория.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, order_id, transaction_code, amount_paid, phone_number, status,
	verified_by, verification_notes, verified_at, created_at`

// Create сохраняет платёж в одной транзакции с переходом статуса заказа.
// Заказ блокируется FOR UPDATE: два платежа по одному заказу не проходят
// одновременно. Платёж на полную сумму подтверждается сразу и переводит
// заказ в paid; недоплата остаётся pending до ручной сверки. Повтор кода
// транзакции отклоняется ограничением уникальности.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("payment repository: begin tx %w", err)
	}
	defer tx.Rollback()

	var order struct {
		Status      string  `db:"status"`
		TotalAmount float64 `db:"total_amount"`
	}
	err = tx.GetContext(ctx, &order,
		`SELECT status, total_amount FROM orders WHERE id = $1 FOR UPDATE`, payment.OrderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("payment repository: lock order %w", err)
	}
	if order.Status != models.OrderStatusPending {
		return ErrOrderNotPending
	}

	status := models.PaymentStatusPending
	if payment.AmountPaid >= order.TotalAmount {
		status = models.PaymentStatusConfirmed
	}

	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO payments (order_id, transaction_code, amount_paid, phone_number, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, payment.OrderID, payment.TransactionCode, payment.AmountPaid, payment.PhoneNumber, status).
		Scan(&payment.ID, &payment.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateTxCode
		}
		return fmt.Errorf("payment repository: insert payment %w", err)
	}
	payment.Status = status

	if status == models.PaymentStatusConfirmed {
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
			payment.OrderID, models.OrderStatusPaid); err != nil {
			return fmt.Errorf("payment repository: mark order paid %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("payment repository: commit %w", err)
	}

	return nil
}

// GetByID возвращает платёж по идентификатору.
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by id %w", err)
	}
	return &payment, nil
}

// GetByOrderID возвращает платёж по заказу.
func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1`
	if err := r.db.GetContext(ctx, &payment, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: get by order id %w", err)
	}
	return &payment, nil
}

// ListAll возвращает платежи с необязательным фильтром по статусу.
func (r *PaymentRepository) ListAll(ctx context.Context, status string) ([]models.Payment, error) {
	payments := []models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("payment repository: list all %w", err)
	}
	return payments, nil
}

// Verify выносит решение администратора по платежу в одной транзакции.
// Подтверждение пересчитывает статус заказа: он становится paid, когда
// сумма подтверждённых платежей покрывает итог. Отклонение помечает платёж
// failed и заказ не трогает.
func (r *PaymentRepository) Verify(ctx context.Context, paymentID, adminID uuid.UUID, confirmed bool, notes string) (*models.Payment, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("payment repository: begin tx %w", err)
	}
	defer tx.Rollback()

	var payment models.Payment
	err = tx.GetContext(ctx, &payment,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payment repository: lock payment %w", err)
	}
	if payment.Status != models.PaymentStatusPending {
		return nil, ErrPaymentNotPending
	}

	newStatus := models.PaymentStatusConfirmed
	if !confirmed {
		newStatus = models.PaymentStatusFailed
	}

	query := `
		UPDATE payments
		SET status = $2, verified_by = $3, verification_notes = $4, verified_at = NOW()
		WHERE id = $1
		RETURNING ` + paymentColumns
	if err := tx.GetContext(ctx, &payment, query, paymentID, newStatus, adminID, notes); err != nil {
		return nil, fmt.Errorf("payment repository: update payment %w", err)
	}

	if confirmed {
		if _, err := tx.ExecContext(ctx, `
			UPDATE orders o
			SET status = $2, updated_at = NOW()
			WHERE o.id = $1 AND o.status = $3
			  AND o.total_amount <= (
				SELECT COALESCE(SUM(p.amount_paid), 0)
				FROM payments p
				WHERE p.order_id = o.id AND p.status = $4
			  )`,
			payment.OrderID, models.OrderStatusPaid, models.OrderStatusPending,
			models.PaymentStatusConfirmed); err != nil {
			return nil, fmt.Errorf("payment repository: settle order %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("payment repository: commit %w", err)
	}

	return &payment, nil
}

// CountPending возвращает число платежей, ожидающих проверки.
func (r *PaymentRepository) CountPending(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM payments WHERE status = $1`, models.PaymentStatusPending); err != nil {
		return 0, fmt.Errorf("payment repository: count pending %w", err)
	}
	return count, nil
}
