package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mealdesk/canteen-backend/internal/models"
)

// TokenManager отвечает за выпуск и проверку JWT.
// Подпись подтверждает подлинность токена, но права даёт только живая
// сессия в базе: после logout токен с валидной подписью бесполезен.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager создаёт менеджер токенов.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// TTL возвращает срок жизни токена.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Generate выпускает токен для пользователя и возвращает срок его действия.
func (m *TokenManager) Generate(user *models.User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.ttl)

	claims := jwt.MapClaims{
		"sub": user.ID.String(),
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, exp, nil
}

// Parse проверяет подпись и срок токена и возвращает userID.
func (m *TokenManager) Parse(token string) (uuid.UUID, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !parsed.Valid {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, jwt.ErrTokenInvalidClaims
	}

	return userID, nil
}
