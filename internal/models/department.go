package models

import (
	"time"

	"github.com/google/uuid"
)

// Department — отдел компании. Поле department у пользователя хранит
// название отдела, поэтому число сотрудников считается по совпадению имени.
type Department struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Description    string    `db:"description" json:"description"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	EmployeesCount int       `db:"employees_count" json:"employees_count"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
