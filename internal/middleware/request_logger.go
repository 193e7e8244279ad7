// Middleware: логирование каждого запроса API — метод, путь, код ответа и время выполнения.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLoggerMiddleware пишет одну запись на запрос; ошибки инфраструктуры из c.Errors — уровнем Error.
func RequestLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if path == "" {
			path = "/"
		}
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(string(ContextKeyRequestID))),
		}
		if caller, ok := Caller(c); ok {
			fields = append(fields, zap.String("user_id", caller.UserID), zap.String("role", string(caller.Role)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Error(c.Errors.Last().Err))
			logger.Error("[API] request failed", fields...)
			return
		}
		logger.Info("[API] request", fields...)
	}
}
