package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"обычный адрес", "ivan@example.com", false},
		{"с точками и плюсом", "ivan.petrov+lunch@corp.example.com", false},
		{"пустой", "", true},
		{"без собаки", "ivan.example.com", true},
		{"две собаки", "ivan@@example.com", true},
		{"без домена верхнего уровня", "ivan@localhost", true},
		{"пробел в локальной части", "iv an@example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("ivan_petrov"))
	assert.NoError(t, ValidateUsername("Ivan123"))
	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("iv"))
	assert.Error(t, ValidateUsername("1ivan"))
	assert.Error(t, ValidateUsername("ivan petrov"))
	assert.Error(t, ValidateUsername(strings.Repeat("a", MaxUsernameLength+1)))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone(""))
	assert.NoError(t, ValidatePhone("+79161234567"))
	assert.NoError(t, ValidatePhone("79161234567"))
	assert.Error(t, ValidatePhone("phone"))
	assert.Error(t, ValidatePhone("+7 916 123 45 67"))
	assert.Error(t, ValidatePhone("12345"))
}

func TestValidateOTP(t *testing.T) {
	assert.NoError(t, ValidateOTP("012345"))
	assert.Error(t, ValidateOTP("12345"))
	assert.Error(t, ValidateOTP("1234567"))
	assert.Error(t, ValidateOTP("12a456"))
	assert.Error(t, ValidateOTP(""))
}

func TestValidateTransactionCode(t *testing.T) {
	assert.NoError(t, ValidateTransactionCode("AB12CD34"))
	assert.NoError(t, ValidateTransactionCode("123456"))
	assert.Error(t, ValidateTransactionCode(""))
	assert.Error(t, ValidateTransactionCode("ab12cd34"))
	assert.Error(t, ValidateTransactionCode("AB-12"))
	assert.Error(t, ValidateTransactionCode(strings.Repeat("A", MaxTxCodeLength+1)))
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, ValidatePrice(150))
	assert.NoError(t, ValidatePrice(MinPrice))
	assert.Error(t, ValidatePrice(0))
	assert.Error(t, ValidatePrice(-10))
	assert.Error(t, ValidatePrice(MaxPrice+1))
}

func TestValidateQuantity(t *testing.T) {
	assert.NoError(t, ValidateQuantity(1))
	assert.Error(t, ValidateQuantity(0))
	assert.Error(t, ValidateQuantity(-3))
}

func TestValidateNotes(t *testing.T) {
	assert.NoError(t, ValidateNotes(""))
	assert.NoError(t, ValidateNotes("без лука"))
	assert.Error(t, ValidateNotes(strings.Repeat("ъ", MaxNotesLength+1)))
}

func TestValidateLength_CountsRunes(t *testing.T) {
	// Кириллица занимает два байта, считаем символы.
	assert.NoError(t, ValidateLength("имя", strings.Repeat("ё", 50), 0, 50))
	assert.Error(t, ValidateLength("имя", strings.Repeat("ё", 51), 0, 50))
	assert.Error(t, ValidateLength("имя", "аб", 3, 50))
}
