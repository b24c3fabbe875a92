package models

import (
	"time"

	"github.com/google/uuid"
)

// FreeMealDay — день бесплатных обедов. Заказы, оформленные в такой день,
// создаются с нулевой суммой и не требуют оплаты.
type FreeMealDay struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Date          time.Time  `db:"date" json:"date"`
	Reason        string     `db:"reason" json:"reason"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	CreatedBy     *uuid.UUID `db:"created_by" json:"created_by,omitempty"`
	CreatedByName string     `db:"created_by_name" json:"created_by_name,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
