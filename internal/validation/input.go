package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Константы валидации
const (
	MinUsernameLength    = 3
	MaxUsernameLength    = 30
	MaxNameLength        = 50
	MaxDepartmentLength  = 100
	MaxEmployeeIDLength  = 20
	MaxPhoneLength       = 15
	MaxNotesLength       = 1000
	MaxMealNameLength    = 100
	MaxCategoryLength    = 50
	MaxDescriptionLength = 2000
	MaxTxCodeLength      = 20
	MinPrice             = 0.01
	MaxPrice             = 1000000.0
	OTPLength            = 6
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	usernameRegex    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phoneRegex       = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
	otpRegex         = regexp.MustCompile(`^[0-9]{6}$`)
	txCodeRegex      = regexp.MustCompile(`^[A-Z0-9]{6,20}$`)
)

// ValidateLength проверяет длину строки в рунах.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("имя пользователя обязательно")
	}

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}
	if unicode.IsDigit(rune(username[0])) {
		return fmt.Errorf("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidatePhone проверяет номер телефона. Пустой номер допустим.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("некорректный формат номера телефона")
	}
	return nil
}

// ValidateOTP проверяет формат одноразового кода.
func ValidateOTP(otp string) error {
	if !otpRegex.MatchString(otp) {
		return fmt.Errorf("код подтверждения должен состоять из %d цифр", OTPLength)
	}
	return nil
}

// ValidateTransactionCode проверяет внешний код транзакции.
func ValidateTransactionCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("код транзакции обязателен")
	}
	if !txCodeRegex.MatchString(code) {
		return fmt.Errorf("код транзакции должен состоять из 6-20 заглавных букв и цифр")
	}
	return nil
}

// ValidateQuantity проверяет количество порций в позиции заказа.
func ValidateQuantity(quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("количество должно быть не менее 1")
	}
	return nil
}

// ValidatePrice проверяет цену блюда.
func ValidatePrice(price float64) error {
	if price < MinPrice {
		return fmt.Errorf("цена должна быть не менее %.2f", MinPrice)
	}
	if price > MaxPrice {
		return fmt.Errorf("цена не может превышать %.0f", MaxPrice)
	}
	return nil
}

// ValidateAmount проверяет сумму платежа.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("сумма должна быть положительной")
	}
	return nil
}

// ValidateNotes проверяет комментарий к заказу.
func ValidateNotes(notes string) error {
	return ValidateLength("комментарий", notes, 0, MaxNotesLength)
}
