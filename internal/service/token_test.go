package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/mealdesk/canteen-backend/internal/models"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	manager := NewTokenManager("test-secret-at-least-32-characters!!", time.Hour)
	user := &models.User{ID: uuid.New()}

	token, expiresAt, err := manager.Generate(user)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	userID, err := manager.Parse(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestTokenManager_Parse_WrongSecret(t *testing.T) {
	manager := NewTokenManager("test-secret-at-least-32-characters!!", time.Hour)
	other := NewTokenManager("another-secret-also-32-characters!!!", time.Hour)
	user := &models.User{ID: uuid.New()}

	token, _, err := manager.Generate(user)
	assert.NoError(t, err)

	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestTokenManager_Parse_Expired(t *testing.T) {
	manager := NewTokenManager("test-secret-at-least-32-characters!!", -time.Minute)
	user := &models.User{ID: uuid.New()}

	token, _, err := manager.Generate(user)
	assert.NoError(t, err)

	_, err = manager.Parse(token)
	assert.Error(t, err)
}

func TestTokenManager_Parse_Garbage(t *testing.T) {
	manager := NewTokenManager("test-secret-at-least-32-characters!!", time.Hour)

	_, err := manager.Parse("definitely.not.jwt")
	assert.Error(t, err)
}
