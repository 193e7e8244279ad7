// Middleware: X-Request-ID (UUID); если клиент не прислал — генерируется.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const HeaderXRequestID = "X-Request-ID"

// RequestIDMiddleware принимает X-Request-ID в формате UUID, иначе выдаёт новый и возвращает его в ответе.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := ""
		if id, err := uuid.Parse(c.GetHeader(HeaderXRequestID)); err == nil {
			rid = id.String()
		} else {
			rid = uuid.NewString()
		}
		c.Set(string(ContextKeyRequestID), rid)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ContextKeyRequestID, rid))
		c.Header(HeaderXRequestID, rid)
		c.Next()
	}
}
