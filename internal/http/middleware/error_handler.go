package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mealdesk/canteen-backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно. Хендлеры кладут
// ошибку через c.Error, клиент получает статус и сообщение из apperror,
// внутренние детали остаются в логе.
func ErrorHandler(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.HTTPStatusOf(err)

		entry := log.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
			"status": status,
		})
		if status >= 500 {
			entry.WithError(err).Error("Ошибка обработки запроса")
		} else {
			entry.WithError(err).Warn("Запрос отклонён")
		}

		c.JSON(status, gin.H{"error": apperror.MessageOf(err)})
	}
}
