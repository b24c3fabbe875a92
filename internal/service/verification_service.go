package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// Mailer отправляет письма пользователям. Продовая реализация ходит в
// почтовый шлюз, в разработке используется LogMailer.
type Mailer interface {
	SendOTP(ctx context.Context, email, otp, purpose string) error
}

// LogMailer пишет письма в лог вместо отправки.
type LogMailer struct {
	log *logrus.Entry
}

// NewLogMailer создаёт лог-реализацию почты.
func NewLogMailer(log *logrus.Entry) *LogMailer {
	return &LogMailer{log: log}
}

// SendOTP пишет код в лог.
func (m *LogMailer) SendOTP(_ context.Context, email, otp, purpose string) error {
	m.log.WithFields(logrus.Fields{
		"email":   email,
		"otp":     otp,
		"purpose": purpose,
	}).Info("Отправка кода подтверждения")
	return nil
}

// VerificationRepo — порт хранилища одноразовых кодов.
type VerificationRepo interface {
	CreateCode(ctx context.Context, userID uuid.UUID, purpose, otp string, expiresAt time.Time) (*models.EmailVerification, error)
	ConsumeCode(ctx context.Context, userID uuid.UUID, purpose, otp string) error
	InvalidateCodes(ctx context.Context, userID uuid.UUID, purpose string) error
}

// VerificationService выпускает и гасит одноразовые коды.
type VerificationService struct {
	repo   VerificationRepo
	mailer Mailer
	ttl    time.Duration
	log    *logrus.Entry
}

// NewVerificationService создаёт сервис кодов подтверждения.
func NewVerificationService(repo VerificationRepo, mailer Mailer, ttl time.Duration, log *logrus.Entry) *VerificationService {
	return &VerificationService{
		repo:   repo,
		mailer: mailer,
		ttl:    ttl,
		log:    log,
	}
}

// Issue выпускает новый код для пользователя и отправляет его на почту.
// Предыдущие коды того же назначения гасятся: действует только последний.
func (s *VerificationService) Issue(ctx context.Context, userID uuid.UUID, email, purpose string) error {
	if !models.IsValidPurpose(purpose) {
		return fmt.Errorf("verification service: unknown purpose %q", purpose)
	}

	if err := s.repo.InvalidateCodes(ctx, userID, purpose); err != nil {
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return fmt.Errorf("verification service: generate otp %w", err)
	}

	if _, err := s.repo.CreateCode(ctx, userID, purpose, otp, time.Now().Add(s.ttl)); err != nil {
		return err
	}

	if err := s.mailer.SendOTP(ctx, email, otp, purpose); err != nil {
		// Код уже в базе, письмо можно перезапросить.
		s.log.WithError(err).WithField("email", email).Error("Не удалось отправить код подтверждения")
		return fmt.Errorf("verification service: send otp %w", err)
	}

	return nil
}

// Consume проверяет и гасит код. Просроченный, чужой или повторно
// использованный код не проходит.
func (s *VerificationService) Consume(ctx context.Context, userID uuid.UUID, purpose, otp string) error {
	return s.repo.ConsumeCode(ctx, userID, purpose, otp)
}

// generateOTP возвращает криптослучайный шестизначный код.
func generateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
