// Ключи контекста и геттеры для request_id и вызывающего пользователя.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/parceltrack/backend/internal/domain"
)

type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyCaller    contextKey = "caller" // заполняется AuthMiddleware
)

// CallerFrom возвращает вызывающего из контекста (после AuthMiddleware).
func CallerFrom(ctx context.Context) (domain.Caller, bool) {
	c, ok := ctx.Value(ContextKeyCaller).(domain.Caller)
	return c, ok
}

// Caller — то же для gin.Context.
func Caller(c *gin.Context) (domain.Caller, bool) {
	v, ok := c.Get(string(ContextKeyCaller))
	if !ok {
		return domain.Caller{}, false
	}
	caller, ok := v.(domain.Caller)
	return caller, ok
}

// SetCaller кладёт вызывающего и в gin.Context, и в context запроса.
func SetCaller(c *gin.Context, caller domain.Caller) {
	c.Set(string(ContextKeyCaller), caller)
	c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ContextKeyCaller, caller))
}

// RequestIDFrom возвращает X-Request-ID из контекста.
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return v
	}
	return ""
}
