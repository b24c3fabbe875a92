package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений для администраторов кухни.
const (
	NotificationNewOrder         = "new_order"
	NotificationPaymentSubmitted = "payment_submitted"
)

// AdminNotification — событие, которое видят администраторы кухни.
type AdminNotification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	OrderID   *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	IsRead    bool       `db:"is_read" json:"is_read"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
