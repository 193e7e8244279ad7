// Middleware: распределённый лимит запросов через Redis (по IP клиента).
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/parceltrack/backend/internal/response"
)

const rateLimitKeyPrefix = "ratelimit:ip:"

// RateLimitMiddleware ограничивает число запросов в секунду на IP (фиксированное окно в Redis);
// при превышении — 429, при недоступном Redis — 503. limitPerSec <= 0 отключает лимит.
func RateLimitMiddleware(rdb *redis.Client, limitPerSec int) gin.HandlerFunc {
	if limitPerSec <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limit := strconv.Itoa(limitPerSec)
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, c.ClientIP(), time.Now().Unix())
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, 2*time.Second)
		if _, err := pipe.Exec(ctx); err != nil {
			response.AbortWithError(c, http.StatusServiceUnavailable, "service unavailable")
			return
		}

		c.Header("X-RateLimit-Limit", limit)
		if incr.Val() > int64(limitPerSec) {
			c.Header("Retry-After", "1")
			response.AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}
