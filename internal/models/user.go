package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает сотрудника, заказывающего обеды через портал.
type User struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Email           string     `db:"email" json:"email"`
	Username        string     `db:"username" json:"username"`
	FirstName       string     `db:"first_name" json:"first_name"`
	LastName        string     `db:"last_name" json:"last_name"`
	PhoneNumber     string     `db:"phone_number" json:"phone_number"`
	EmployeeID      string     `db:"employee_id" json:"employee_id"`
	Department      string     `db:"department" json:"department"`
	PasswordHash    string     `db:"password_hash" json:"-"`
	IsEmailVerified bool       `db:"is_email_verified" json:"is_email_verified"`
	IsKitchenAdmin  bool       `db:"is_kitchen_admin" json:"is_kitchen_admin"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	LastLoginAt     *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Session представляет выданный bearer токен.
// У пользователя может быть несколько активных сессий одновременно.
type Session struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Token     string    `db:"token" json:"-"`
	UserAgent *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
