package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// ErrUserNotFound возвращается, когда запись пользователя не найдена.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken возвращается при попытке зарегистрировать занятый email.
var ErrEmailTaken = errors.New("email already registered")

// ErrSessionNotFound возвращается, когда сессия не найдена.
var ErrSessionNotFound = errors.New("session not found")

const userColumns = `id, email, username, first_name, last_name, phone_number, employee_id, department,
	password_hash, is_email_verified, is_kitchen_admin, is_active, last_login_at, created_at, updated_at`

// UserRepository отвечает за работу с таблицами users и user_sessions.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового неподтверждённого пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, first_name, last_name, phone_number, employee_id, department, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, is_email_verified, is_kitchen_admin, is_active, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Email, user.Username, user.FirstName, user.LastName,
		user.PhoneNumber, user.EmployeeID, user.Department, user.PasswordHash,
	).Scan(&user.ID, &user.IsEmailVerified, &user.IsKitchenAdmin, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by id %w", err)
	}

	return &user, nil
}

// MarkEmailVerified помечает email пользователя подтверждённым.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_email_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("user repository: mark email verified %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: mark email verified rows affected %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdatePassword заменяет хеш пароля пользователя.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, passwordHash); err != nil {
		return fmt.Errorf("user repository: update password %w", err)
	}
	return nil
}

// UpdateProfile обновляет контактные данные пользователя.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone_number = $4, department = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(
		ctx, query,
		user.ID, user.FirstName, user.LastName, user.PhoneNumber, user.Department,
	).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user repository: update profile %w", err)
	}

	return nil
}

// UpdateLastLoginAt обновляет время последнего входа пользователя.
func (r *UserRepository) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: update last login at %w", err)
	}
	return nil
}

// CountCustomers возвращает количество обычных пользователей (не администраторов).
func (r *UserRepository) CountCustomers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE is_kitchen_admin = FALSE`); err != nil {
		return 0, fmt.Errorf("user repository: count customers %w", err)
	}
	return count, nil
}

// CreateSession сохраняет новую сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO user_sessions (user_id, token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		session.UserID, session.Token, session.UserAgent, session.IPAddress, session.ExpiresAt,
	).Scan(&session.ID, &session.CreatedAt); err != nil {
		return fmt.Errorf("user repository: create session %w", err)
	}

	return nil
}

// GetSessionByToken возвращает действующую сессию по значению токена.
func (r *UserRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	query := `
		SELECT id, user_id, token, user_agent, ip_address, expires_at, created_at
		FROM user_sessions
		WHERE token = $1 AND expires_at > NOW()
	`
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("user repository: get session by token %w", err)
	}

	return &session, nil
}

// DeleteSession удаляет сессию по значению токена.
// Отсутствие сессии не считается ошибкой: logout идемпотентен.
func (r *UserRepository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("user repository: delete session %w", err)
	}
	return nil
}

// DeleteAllSessions удаляет все сессии пользователя (после сброса пароля).
func (r *UserRepository) DeleteAllSessions(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("user repository: delete all sessions %w", err)
	}
	return nil
}
