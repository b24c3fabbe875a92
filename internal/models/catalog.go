package models

import (
	"time"

	"github.com/google/uuid"
)

// MealCategory группирует блюда в меню.
type MealCategory struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Meal описывает блюдо в каталоге.
// UnitsAvailable == nil означает неограниченный остаток.
type Meal struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	CategoryID     uuid.UUID  `db:"category_id" json:"category_id"`
	CategoryName   string     `db:"category_name" json:"category_name,omitempty"`
	Name           string     `db:"name" json:"name"`
	Description    string     `db:"description" json:"description"`
	Price          float64    `db:"price" json:"price"`
	ImagePath      *string    `db:"image_path" json:"image_path,omitempty"`
	IsAvailable    bool       `db:"is_available" json:"is_available"`
	MaxPerPerson   int        `db:"max_per_person" json:"max_per_person"`
	UnitsAvailable *int       `db:"units_available" json:"units_available,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// HasUnitsLeft сообщает, остались ли порции.
func (m *Meal) HasUnitsLeft() bool {
	if m.UnitsAvailable == nil {
		return true
	}
	return *m.UnitsAvailable > 0
}
