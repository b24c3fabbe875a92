package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// CacheService — in-memory кеш с TTL. Используется для горячих сессий
// и сводок дашборда, чтобы не ходить в базу на каждый запрос.
type CacheService struct {
	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	data      interface{}
	expiresAt time.Time
}

// NewCacheService создаёт кеш и запускает фоновую очистку.
func NewCacheService() *CacheService {
	cs := &CacheService{
		cache: make(map[string]*cacheEntry),
	}

	go cs.cleanup()

	return cs
}

// Get возвращает значение по ключу, если оно ещё живо.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	entry, exists := cs.cache[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		return nil, false
	}

	return entry.data, true
}

// Set сохраняет значение с TTL.
func (cs *CacheService) Set(key string, value interface{}, ttl time.Duration) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.cache[key] = &cacheEntry{
		data:      value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete удаляет ключ.
func (cs *CacheService) Delete(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	delete(cs.cache, key)
}

// InvalidateByPrefix удаляет все ключи с заданным префиксом.
func (cs *CacheService) InvalidateByPrefix(prefix string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for key := range cs.cache {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(cs.cache, key)
		}
	}
}

// InvalidateUserCache сбрасывает кеши конкретного пользователя.
func (cs *CacheService) InvalidateUserCache(userID uuid.UUID) {
	cs.InvalidateByPrefix("stats:" + userID.String())
	cs.InvalidateByPrefix("profile:" + userID.String())
}

// InvalidateDashboardCache сбрасывает сводку администратора.
// Вызывается при каждом изменении заказов и платежей.
func (cs *CacheService) InvalidateDashboardCache() {
	cs.InvalidateByPrefix("dashboard:")
}

// cleanup периодически удаляет просроченные записи.
func (cs *CacheService) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		cs.mu.Lock()
		now := time.Now()
		for key, entry := range cs.cache {
			if now.After(entry.expiresAt) {
				delete(cs.cache, key)
			}
		}
		cs.mu.Unlock()
	}
}

// Генераторы ключей кеша.

func SessionCacheKey(token string) string {
	return "session:" + token
}

func StatsCacheKey(userID uuid.UUID) string {
	return "stats:" + userID.String()
}

func AdminDashboardCacheKey() string {
	return "dashboard:admin"
}
