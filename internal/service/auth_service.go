package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mealdesk/canteen-backend/internal/models"
	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
	"github.com/mealdesk/canteen-backend/internal/repository"
	"github.com/mealdesk/canteen-backend/internal/validation"
)

// sessionCacheTTL ограничивает жизнь сессии в кеше. Сброс пароля
// удаляет сессии из базы, кеш догоняет не позже чем через минуту.
const sessionCacheTTL = time.Minute

// AuthUserRepo — порт хранилища пользователей и сессий.
type AuthUserRepo interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteAllSessions(ctx context.Context, userID uuid.UUID) error
}

// RegisterInput — данные регистрации.
type RegisterInput struct {
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
	PhoneNumber     string
	EmployeeID      string
	Department      string
}

// UpdateProfileInput — редактируемые поля профиля.
type UpdateProfileInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
	Department  string
}

// LoginResult — результат успешного входа.
type LoginResult struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// AuthService реализует регистрацию, вход и управление сессиями.
type AuthService struct {
	users        AuthUserRepo
	verification *VerificationService
	tokens       *TokenManager
	cache        *CacheService
	log          *logrus.Entry
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users AuthUserRepo, verification *VerificationService, tokens *TokenManager, cache *CacheService, log *logrus.Entry) *AuthService {
	return &AuthService{
		users:        users,
		verification: verification,
		tokens:       tokens,
		cache:        cache,
		log:          log,
	}
}

// Register создаёт неподтверждённого пользователя и отправляет код на почту.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if err := validation.ValidateEmail(email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateUsername(input.Username); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if input.Password != input.ConfirmPassword {
		return nil, apperror.New(apperror.ErrCodeValidation, "пароли не совпадают")
	}
	if err := validation.ValidatePhone(input.PhoneNumber); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("имя", input.FirstName, 1, validation.MaxNameLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("фамилия", input.LastName, 1, validation.MaxNameLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("табельный номер", input.EmployeeID, 0, validation.MaxEmployeeIDLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("отдел", input.Department, 0, validation.MaxDepartmentLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обработать пароль")
	}

	user := &models.User{
		Email:        email,
		Username:     strings.TrimSpace(input.Username),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PhoneNumber:  strings.TrimSpace(input.PhoneNumber),
		EmployeeID:   strings.TrimSpace(input.EmployeeID),
		Department:   strings.TrimSpace(input.Department),
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperror.ErrEmailTaken
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать пользователя")
	}

	if err := s.verification.Issue(ctx, user.ID, user.Email, models.OTPPurposeVerification); err != nil {
		// Пользователь создан, код можно запросить повторно через forgot-password.
		s.log.WithError(err).WithField("user_id", user.ID).Error("Не удалось выпустить код подтверждения")
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("Пользователь зарегистрирован")

	return user, nil
}

// VerifyEmail гасит код указанного назначения. Email помечается
// подтверждённым только при purpose=verification: код сброса пароля
// можно проверить заранее, не расходуя его на подтверждение аккаунта.
func (s *AuthService) VerifyEmail(ctx context.Context, email, otp, purpose string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateOTP(otp); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if !models.IsValidPurpose(purpose) {
		return apperror.New(apperror.ErrCodeValidation, "неизвестное назначение кода")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Не раскрываем, существует ли аккаунт.
			return apperror.ErrInvalidOTP
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить код")
	}

	if err := s.verification.Consume(ctx, user.ID, purpose, otp); err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return apperror.ErrInvalidOTP
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить код")
	}

	if purpose != models.OTPPurposeVerification {
		return nil
	}

	if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось подтвердить email")
	}

	s.log.WithField("user_id", user.ID).Info("Email подтверждён")

	return nil
}

// Login проверяет учётные данные и выпускает токен, привязанный к сессии.
func (s *AuthService) Login(ctx context.Context, email, password string, userAgent, ipAddress *string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выполнить вход")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperror.ErrInvalidCredentials
	}
	if !user.IsEmailVerified {
		return nil, apperror.ErrEmailNotVerified
	}

	token, expiresAt, err := s.tokens.Generate(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен")
	}

	session := &models.Session{
		UserID:    user.ID,
		Token:     token,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: expiresAt,
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать сессию")
	}

	if err := s.users.UpdateLastLoginAt(ctx, user.ID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Warn("Не удалось обновить время входа")
	}

	s.cache.Set(SessionCacheKey(token), session, sessionCacheTTL)

	s.log.WithField("user_id", user.ID).Info("Пользователь вошёл в систему")

	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// ForgotPassword выпускает код сброса пароля. Ответ одинаков для
// существующих и несуществующих адресов.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обработать запрос")
	}

	if err := s.verification.Issue(ctx, user.ID, user.Email, models.OTPPurposePasswordReset); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("Не удалось выпустить код сброса пароля")
	}

	return nil
}

// ResetPassword гасит код сброса и устанавливает новый пароль.
// Все сессии пользователя завершаются.
func (s *AuthService) ResetPassword(ctx context.Context, email, otp, newPassword, confirmPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateOTP(otp); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if newPassword != confirmPassword {
		return apperror.New(apperror.ErrCodeValidation, "пароли не совпадают")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.ErrInvalidOTP
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сбросить пароль")
	}

	if err := s.verification.Consume(ctx, user.ID, models.OTPPurposePasswordReset, otp); err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return apperror.ErrInvalidOTP
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сбросить пароль")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обработать пароль")
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сбросить пароль")
	}

	if err := s.users.DeleteAllSessions(ctx, user.ID); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("Не удалось завершить сессии пользователя")
	}
	s.cache.InvalidateByPrefix("session:")

	s.log.WithField("user_id", user.ID).Info("Пароль сброшен")

	return nil
}

// Logout удаляет сессию токена. Операция идемпотентна.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.users.DeleteSession(ctx, token); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось завершить сессию")
	}
	s.cache.Delete(SessionCacheKey(token))
	return nil
}

// Authenticate проверяет токен и возвращает его владельца.
// Токен жив, только если подпись верна и сессия существует в базе.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}

	if cached, found := s.cache.Get(SessionCacheKey(token)); found {
		if session, ok := cached.(*models.Session); ok && session.UserID == userID {
			return s.loadActiveUser(ctx, userID)
		}
	}

	session, err := s.users.GetSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить сессию")
	}
	if session.UserID != userID {
		return nil, apperror.ErrUnauthorized
	}

	s.cache.Set(SessionCacheKey(token), session, sessionCacheTTL)

	return s.loadActiveUser(ctx, userID)
}

// GetProfile возвращает профиль пользователя.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить профиль")
	}
	return user, nil
}

// UpdateProfile обновляет контактные данные пользователя.
// Email, имя пользователя и табельный номер не редактируются.
func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	if err := validation.ValidateLength("имя", input.FirstName, 1, validation.MaxNameLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("фамилия", input.LastName, 1, validation.MaxNameLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePhone(input.PhoneNumber); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("отдел", input.Department, 0, validation.MaxDepartmentLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить профиль")
	}

	user.FirstName = strings.TrimSpace(input.FirstName)
	user.LastName = strings.TrimSpace(input.LastName)
	user.PhoneNumber = strings.TrimSpace(input.PhoneNumber)
	user.Department = strings.TrimSpace(input.Department)

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить профиль")
	}

	s.cache.InvalidateUserCache(userID)

	return user, nil
}

func (s *AuthService) loadActiveUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось загрузить пользователя")
	}
	if !user.IsActive {
		return nil, apperror.ErrUnauthorized
	}
	return user, nil
}
