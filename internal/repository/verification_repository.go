package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// ErrOTPNotFound возвращается, когда подходящий код не найден,
// просрочен или уже использован.
var ErrOTPNotFound = errors.New("otp not found")

// VerificationRepository отвечает за таблицу email_verifications.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository создаёт экземпляр репозитория.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// CreateCode сохраняет новый одноразовый код.
func (r *VerificationRepository) CreateCode(ctx context.Context, userID uuid.UUID, purpose, otp string, expiresAt time.Time) (*models.EmailVerification, error) {
	var verification models.EmailVerification
	query := `
		INSERT INTO email_verifications (user_id, otp, purpose, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, otp, purpose, is_used, expires_at, created_at
	`
	if err := r.db.GetContext(ctx, &verification, query, userID, otp, purpose, expiresAt); err != nil {
		return nil, fmt.Errorf("verification repository: create code %w", err)
	}

	return &verification, nil
}

// ConsumeCode атомарно помечает код использованным.
// Код должен совпадать, быть не просроченным и не использованным ранее.
func (r *VerificationRepository) ConsumeCode(ctx context.Context, userID uuid.UUID, purpose, otp string) error {
	query := `
		UPDATE email_verifications
		SET is_used = TRUE
		WHERE id = (
			SELECT id FROM email_verifications
			WHERE user_id = $1 AND purpose = $2 AND otp = $3
			  AND is_used = FALSE AND expires_at > NOW()
			ORDER BY created_at DESC
			LIMIT 1
		)
		RETURNING id
	`

	var id uuid.UUID
	if err := r.db.QueryRowxContext(ctx, query, userID, purpose, otp).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOTPNotFound
		}
		return fmt.Errorf("verification repository: consume code %w", err)
	}

	return nil
}

// InvalidateCodes помечает все непогашенные коды пользователя использованными.
// Вызывается перед выдачей нового кода, чтобы действовал только последний.
func (r *VerificationRepository) InvalidateCodes(ctx context.Context, userID uuid.UUID, purpose string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE email_verifications SET is_used = TRUE WHERE user_id = $1 AND purpose = $2 AND is_used = FALSE`,
		userID, purpose); err != nil {
		return fmt.Errorf("verification repository: invalidate codes %w", err)
	}
	return nil
}
