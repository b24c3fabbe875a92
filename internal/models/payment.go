package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы платежа.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusFailed    = "failed"
)

// Payment — платёж по заказу с внешним кодом транзакции (M-Pesa).
// Код транзакции уникален глобально, повторная отправка отклоняется.
type Payment struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	OrderID           uuid.UUID  `db:"order_id" json:"order_id"`
	TransactionCode   string     `db:"transaction_code" json:"transaction_code"`
	AmountPaid        float64    `db:"amount_paid" json:"amount_paid"`
	PhoneNumber       string     `db:"phone_number" json:"phone_number"`
	Status            string     `db:"status" json:"status"`
	VerifiedBy        *uuid.UUID `db:"verified_by" json:"verified_by,omitempty"`
	VerificationNotes string     `db:"verification_notes" json:"verification_notes"`
	VerifiedAt        *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}
