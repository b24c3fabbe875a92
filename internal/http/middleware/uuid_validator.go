package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UUIDValidator отклоняет запрос, если параметр пути не является UUID.
// Ставится перед хендлерами, принимающими идентификаторы.
func UUIDValidator(paramName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Param(paramName)
		if _, err := uuid.Parse(raw); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "неверный формат идентификатора",
			})
			return
		}
		c.Next()
	}
}
