package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// captureMailer запоминает отправленные коды.
type captureMailer struct {
	mu   sync.Mutex
	sent []string
}

func (m *captureMailer) SendOTP(_ context.Context, _, otp, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, otp)
	return nil
}

func TestVerificationService_Issue_InvalidatesOldCodes(t *testing.T) {
	codes := new(mockVerificationRepo)
	mailer := &captureMailer{}
	svc := NewVerificationService(codes, mailer, 15*time.Minute, testLog())
	ctx := context.Background()
	userID := uuid.New()

	codes.On("InvalidateCodes", ctx, userID, models.OTPPurposeVerification).Return(nil)
	codes.On("CreateCode", ctx, userID, models.OTPPurposeVerification, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(&models.EmailVerification{ID: uuid.New(), UserID: userID}, nil)

	err := svc.Issue(ctx, userID, "ivan@example.com", models.OTPPurposeVerification)
	assert.NoError(t, err)
	assert.Len(t, mailer.sent, 1)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), mailer.sent[0])
	codes.AssertExpectations(t)
}

func TestVerificationService_Issue_UnknownPurpose(t *testing.T) {
	svc := NewVerificationService(new(mockVerificationRepo), &captureMailer{}, 15*time.Minute, testLog())

	err := svc.Issue(context.Background(), uuid.New(), "ivan@example.com", "magic_link")
	assert.Error(t, err)
}

func TestGenerateOTP_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		otp, err := generateOTP()
		assert.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), otp)
		seen[otp] = true
	}
	// 100 кодов подряд не должны схлопнуться в одно значение.
	assert.Greater(t, len(seen), 1)
}
