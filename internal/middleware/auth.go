// Middleware: заголовок Authorization: Bearer <token> и определение роли вызывающего.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/response"
	"github.com/parceltrack/backend/internal/security"
)

const HeaderAuthorization = "Authorization"
const BearerPrefix = "Bearer "

// IdentityResolver — проверка токена и разрешение роли (security.Gate).
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (domain.Caller, error)
}

func bearer(c *gin.Context) (string, bool) {
	raw := c.GetHeader(HeaderAuthorization)
	if !strings.HasPrefix(raw, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(raw, BearerPrefix))
	return token, token != ""
}

// AuthMiddleware требует валидный Bearer-токен; иначе 401.
func AuthMiddleware(gate IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearer(c)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, "missing Bearer token")
			return
		}
		caller, err := gate.Resolve(c.Request.Context(), token)
		if errors.Is(err, security.ErrInvalidToken) {
			response.AbortWithError(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if err != nil {
			response.Fail(c, err)
			return
		}
		SetCaller(c, caller)
		c.Next()
	}
}

// OptionalAuthMiddleware пропускает запрос без токена, а при наличии
// токена разрешает вызывающего как AuthMiddleware. При required=true
// работает как AuthMiddleware.
func OptionalAuthMiddleware(gate IdentityResolver, required bool) gin.HandlerFunc {
	strict := AuthMiddleware(gate)
	return func(c *gin.Context) {
		if _, ok := bearer(c); ok || required {
			strict(c)
			return
		}
		c.Next()
	}
}

// RequireAdmin пропускает только администраторов.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := Caller(c)
		if !ok || !caller.IsAdmin() {
			response.AbortWithError(c, http.StatusForbidden, "administrator role required")
			return
		}
		c.Next()
	}
}
