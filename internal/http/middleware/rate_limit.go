package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const (
	defaultRateLimit  = 10
	defaultRatePeriod = time.Minute
)

// RateLimitMiddleware дросселирует запросы к маршрутам аутентификации.
// Счётчик ведётся по паре IP + путь: исчерпанный лимит на login
// не мешает тому же адресу запросить forgot-password.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if period <= 0 {
		period = defaultRatePeriod
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{
		Period: period,
		Limit:  limit,
	})

	return func(c *gin.Context) {
		key := c.ClientIP() + "|" + c.FullPath()

		quota, err := instance.Get(c, key)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(quota.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(quota.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(quota.Reset, 10))

		if quota.Reached {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "слишком много запросов, попробуйте позже",
			})
			return
		}

		c.Next()
	}
}
