// Middleware: перехват panic, ответ 500 без утечки стека клиенту, лог с request_id.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/response"
)

// RecoveryMiddleware перехватывает panic, логирует с request_id и возвращает 500 без раскрытия деталей клиенту.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("[PANIC]",
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(string(ContextKeyRequestID))),
					zap.Any("err", err),
					zap.Stack("stack"))
				response.AbortWithError(c, http.StatusInternalServerError, "internal server error")
			}
		}()
		c.Next()
	}
}
