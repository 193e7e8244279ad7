// Middleware: заголовки безопасности в каждый ответ.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	cspAPI     = "default-src 'none'; frame-ancestors 'none'"
	cspSwagger = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:"
)

// SecurityHeadersMiddleware добавляет X-Content-Type-Options, X-Frame-Options, CSP и HSTS.
// Swagger UI отдаётся из встроенных ассетов, поэтому ему достаточно 'self'.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		if strings.HasPrefix(c.Request.URL.Path, "/swagger") {
			h.Set("Content-Security-Policy", cspSwagger)
		} else {
			h.Set("Content-Security-Policy", cspAPI)
		}
		c.Next()
	}
}
