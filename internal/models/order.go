package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы заказа. Из paid и cancelled возврата назад нет:
// pending -> paid -> fulfilled, либо pending -> cancelled.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusFulfilled = "fulfilled"
	OrderStatusCancelled = "cancelled"
)

// Order описывает заказ сотрудника. Заказ в день бесплатных обедов
// создаётся с нулевой суммой и сразу считается оплаченным.
type Order struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	UserID         uuid.UUID   `db:"user_id" json:"user_id"`
	UserEmail      string      `db:"user_email" json:"user_email,omitempty"`
	Status         string      `db:"status" json:"status"`
	TotalAmount    float64     `db:"total_amount" json:"total_amount"`
	Notes          string      `db:"notes" json:"notes"`
	IsFreeMeal     bool        `db:"is_free_meal" json:"is_free_meal"`
	IsAdminCreated bool        `db:"is_admin_created" json:"is_admin_created"`
	Items          []OrderItem `json:"items,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// OrderItem — позиция заказа. Цена фиксируется из каталога в момент создания.
type OrderItem struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OrderID      uuid.UUID `db:"order_id" json:"order_id"`
	MealID       uuid.UUID `db:"meal_id" json:"meal_id"`
	MealName     string    `db:"meal_name" json:"meal_name,omitempty"`
	Quantity     int       `db:"quantity" json:"quantity"`
	PricePerItem float64   `db:"price_per_item" json:"price_per_item"`
	Subtotal     float64   `db:"subtotal" json:"subtotal"`
}
