package models

import (
	"time"

	"github.com/google/uuid"
)

// Назначение одноразового кода.
const (
	OTPPurposeVerification  = "verification"
	OTPPurposePasswordReset = "password_reset"
)

// EmailVerification хранит одноразовый код, отправленный на email.
// Код действует ограниченное время и может быть использован только один раз.
type EmailVerification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	OTP       string    `db:"otp" json:"-"`
	Purpose   string    `db:"purpose" json:"purpose"`
	IsUsed    bool      `db:"is_used" json:"is_used"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsValidPurpose проверяет, что значение purpose допустимо.
func IsValidPurpose(purpose string) bool {
	return purpose == OTPPurposeVerification || purpose == OTPPurposePasswordReset
}
