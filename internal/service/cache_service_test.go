package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCacheService_SetGet(t *testing.T) {
	cache := NewCacheService()

	cache.Set("key", "value", time.Minute)

	got, found := cache.Get("key")
	assert.True(t, found)
	assert.Equal(t, "value", got)
}

func TestCacheService_Expiration(t *testing.T) {
	cache := NewCacheService()

	cache.Set("key", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	_, found := cache.Get("key")
	assert.False(t, found)
}

func TestCacheService_Delete(t *testing.T) {
	cache := NewCacheService()

	cache.Set("key", "value", time.Minute)
	cache.Delete("key")

	_, found := cache.Get("key")
	assert.False(t, found)
}

func TestCacheService_InvalidateByPrefix(t *testing.T) {
	cache := NewCacheService()

	cache.Set("session:aaa", 1, time.Minute)
	cache.Set("session:bbb", 2, time.Minute)
	cache.Set("stats:ccc", 3, time.Minute)

	cache.InvalidateByPrefix("session:")

	_, found := cache.Get("session:aaa")
	assert.False(t, found)
	_, found = cache.Get("session:bbb")
	assert.False(t, found)
	_, found = cache.Get("stats:ccc")
	assert.True(t, found)
}

func TestCacheService_InvalidateUserCache(t *testing.T) {
	cache := NewCacheService()
	userID := uuid.New()

	cache.Set(StatsCacheKey(userID), 1, time.Minute)
	cache.Set(AdminDashboardCacheKey(), 2, time.Minute)

	cache.InvalidateUserCache(userID)

	_, found := cache.Get(StatsCacheKey(userID))
	assert.False(t, found)
	_, found = cache.Get(AdminDashboardCacheKey())
	assert.True(t, found)
}
