package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// Ошибки заказа.
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrMealUnavailable      = errors.New("meal unavailable")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrMaxPerPersonExceeded = errors.New("max per person exceeded")
	ErrOrderNotPending      = errors.New("order is not pending")
)

// OrderItemRequest — запрошенная позиция заказа. Цена берётся из каталога.
type OrderItemRequest struct {
	MealID   uuid.UUID
	Quantity int
}

// OrderRepository отвечает за таблицы orders и order_items.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт экземпляр репозитория.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// lockedMeal — строка блюда, захваченная FOR UPDATE при создании заказа.
type lockedMeal struct {
	ID             uuid.UUID `db:"id"`
	Name           string    `db:"name"`
	Price          float64   `db:"price"`
	IsAvailable    bool      `db:"is_available"`
	MaxPerPerson   int       `db:"max_per_person"`
	UnitsAvailable *int      `db:"units_available"`
}

// CreateOrder создаёт заказ в одной транзакции.
// Каждое блюдо блокируется FOR UPDATE: остаток проверяется и списывается
// атомарно, цена и название фиксируются в позиции на момент создания.
// Итоговая сумма считается на сервере, суммы из запроса не принимаются.
// В активный день бесплатных обедов заказ создаётся с нулевой суммой и
// сразу оплаченным; цены в позициях остаются каталожными, остатки
// списываются как обычно.
func (r *OrderRepository) CreateOrder(ctx context.Context, userID uuid.UUID, notes string, adminCreated bool, items []OrderItemRequest) (*models.Order, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("order repository: begin tx %w", err)
	}
	defer tx.Rollback()

	order := &models.Order{
		UserID:         userID,
		Status:         models.OrderStatusPending,
		Notes:          notes,
		IsAdminCreated: adminCreated,
		Items:          make([]models.OrderItem, 0, len(items)),
	}

	var freeDay bool
	if err := tx.GetContext(ctx, &freeDay,
		`SELECT EXISTS (SELECT 1 FROM free_meal_days WHERE date = CURRENT_DATE AND is_active)`); err != nil {
		return nil, fmt.Errorf("order repository: check free meal day %w", err)
	}

	for _, item := range items {
		var meal lockedMeal
		err := tx.GetContext(ctx, &meal, `
			SELECT id, name, price, is_available, max_per_person, units_available
			FROM meals WHERE id = $1 FOR UPDATE
		`, item.MealID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrMealNotFound, item.MealID)
			}
			return nil, fmt.Errorf("order repository: lock meal %w", err)
		}

		if !meal.IsAvailable {
			return nil, fmt.Errorf("%w: %s", ErrMealUnavailable, meal.Name)
		}
		if item.Quantity > meal.MaxPerPerson {
			return nil, fmt.Errorf("%w: %s, максимум %d", ErrMaxPerPersonExceeded, meal.Name, meal.MaxPerPerson)
		}
		if meal.UnitsAvailable != nil {
			if *meal.UnitsAvailable < item.Quantity {
				return nil, fmt.Errorf("%w: %s, осталось %d", ErrInsufficientStock, meal.Name, *meal.UnitsAvailable)
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE meals SET units_available = units_available - $2, updated_at = NOW() WHERE id = $1`,
				meal.ID, item.Quantity); err != nil {
				return nil, fmt.Errorf("order repository: decrement stock %w", err)
			}
		}

		subtotal := meal.Price * float64(item.Quantity)
		order.Items = append(order.Items, models.OrderItem{
			MealID:       meal.ID,
			MealName:     meal.Name,
			Quantity:     item.Quantity,
			PricePerItem: meal.Price,
			Subtotal:     subtotal,
		})
		order.TotalAmount += subtotal
	}

	if freeDay {
		order.TotalAmount = 0
		order.Status = models.OrderStatusPaid
		order.IsFreeMeal = true
	}

	if err := tx.QueryRowxContext(ctx, `
		INSERT INTO orders (user_id, status, total_amount, notes, is_free_meal, is_admin_created)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, order.UserID, order.Status, order.TotalAmount, order.Notes, order.IsFreeMeal, order.IsAdminCreated).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, fmt.Errorf("order repository: insert order %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = order.ID
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, meal_id, quantity, price_per_item, subtotal)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, item.OrderID, item.MealID, item.Quantity, item.PricePerItem, item.Subtotal).
			Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("order repository: insert order item %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("order repository: commit %w", err)
	}

	return order, nil
}

// GetByID возвращает заказ с позициями.
func (r *OrderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `
		SELECT o.id, o.user_id, u.email AS user_email, o.status, o.total_amount, o.notes,
		       o.is_free_meal, o.is_admin_created, o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`
	if err := r.db.GetContext(ctx, &order, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id %w", err)
	}

	items, err := r.loadItems(ctx, []uuid.UUID{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return &order, nil
}

// ListByUser возвращает заказы пользователя с позициями, новые первыми.
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders := []models.Order{}
	query := `
		SELECT o.id, o.user_id, o.status, o.total_amount, o.notes,
		       o.is_free_meal, o.is_admin_created, o.created_at, o.updated_at
		FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`
	if err := r.db.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, fmt.Errorf("order repository: list by user %w", err)
	}

	return r.attachItems(ctx, orders)
}

// ListAll возвращает все заказы с необязательным фильтром по статусу.
func (r *OrderRepository) ListAll(ctx context.Context, status string) ([]models.Order, error) {
	orders := []models.Order{}
	query := `
		SELECT o.id, o.user_id, u.email AS user_email, o.status, o.total_amount, o.notes,
		       o.is_free_meal, o.is_admin_created, o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
	`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE o.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY o.created_at DESC`

	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list all %w", err)
	}

	return r.attachItems(ctx, orders)
}

// ListByDateRange возвращает заказы, созданные в интервале дат включительно.
func (r *OrderRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	orders := []models.Order{}
	query := `
		SELECT o.id, o.user_id, u.email AS user_email, o.status, o.total_amount, o.notes,
		       o.is_free_meal, o.is_admin_created, o.created_at, o.updated_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.created_at >= $1 AND o.created_at < $2 + INTERVAL '1 day'
		ORDER BY o.created_at DESC
	`
	if err := r.db.SelectContext(ctx, &orders, query,
		from.Format("2006-01-02"), to.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("order repository: list by date range %w", err)
	}

	return r.attachItems(ctx, orders)
}

// Cancel переводит заказ в cancelled и возвращает списанный остаток блюд.
// Отменить можно только заказ в статусе pending.
func (r *OrderRepository) Cancel(ctx context.Context, orderID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("order repository: begin tx %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowxContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("order repository: lock order %w", err)
	}
	if status != models.OrderStatusPending {
		return ErrOrderNotPending
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE meals m
		SET units_available = m.units_available + oi.quantity, updated_at = NOW()
		FROM order_items oi
		WHERE oi.order_id = $1 AND oi.meal_id = m.id AND m.units_available IS NOT NULL
	`, orderID); err != nil {
		return fmt.Errorf("order repository: restore stock %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`,
		orderID, models.OrderStatusCancelled); err != nil {
		return fmt.Errorf("order repository: cancel order %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("order repository: commit %w", err)
	}

	return nil
}

// MarkFulfilled переводит оплаченный заказ в fulfilled.
func (r *OrderRepository) MarkFulfilled(ctx context.Context, orderID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		orderID, models.OrderStatusFulfilled, models.OrderStatusPaid)
	if err != nil {
		return fmt.Errorf("order repository: mark fulfilled %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("order repository: mark fulfilled rows affected %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID); err != nil {
			return fmt.Errorf("order repository: mark fulfilled check %w", err)
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrOrderNotPending
	}

	return nil
}

// CustomerStats считает агрегаты по заказам пользователя.
// В total_spent входят только оплаченные и выданные заказы.
func (r *OrderRepository) CustomerStats(ctx context.Context, userID uuid.UUID) (*models.CustomerStats, error) {
	var stats models.CustomerStats
	query := `
		SELECT
			COUNT(*) AS total_orders,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending_orders,
			COUNT(*) FILTER (WHERE status = 'paid') AS paid_orders,
			COUNT(*) FILTER (WHERE status = 'fulfilled') AS fulfilled_orders,
			COALESCE(SUM(total_amount) FILTER (WHERE status IN ('paid', 'fulfilled')), 0) AS total_spent
		FROM orders
		WHERE user_id = $1
	`
	if err := r.db.GetContext(ctx, &stats, query, userID); err != nil {
		return nil, fmt.Errorf("order repository: customer stats %w", err)
	}
	return &stats, nil
}

// TodayStats считает заказы и выручку за текущие сутки.
// Выручка включает только оплаченные и выданные заказы.
func (r *OrderRepository) TodayStats(ctx context.Context) (ordersToday int, revenueToday float64, err error) {
	query := `
		SELECT
			COUNT(*) AS orders_today,
			COALESCE(SUM(total_amount) FILTER (WHERE status IN ('paid', 'fulfilled')), 0) AS revenue_today
		FROM orders
		WHERE created_at >= date_trunc('day', NOW())
	`
	row := struct {
		OrdersToday  int     `db:"orders_today"`
		RevenueToday float64 `db:"revenue_today"`
	}{}
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("order repository: today stats %w", err)
	}
	return row.OrdersToday, row.RevenueToday, nil
}

// loadItems загружает позиции для набора заказов одним запросом.
func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return map[uuid.UUID][]models.OrderItem{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT oi.id, oi.order_id, oi.meal_id, m.name AS meal_name, oi.quantity, oi.price_per_item, oi.subtotal
		FROM order_items oi
		JOIN meals m ON m.id = oi.meal_id
		WHERE oi.order_id IN (?)
		ORDER BY m.name
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("order repository: build items query %w", err)
	}

	items := []models.OrderItem{}
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("order repository: load items %w", err)
	}

	byOrder := make(map[uuid.UUID][]models.OrderItem, len(orderIDs))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}

	return byOrder, nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []models.Order) ([]models.Order, error) {
	ids := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	items, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}

	return orders, nil
}
