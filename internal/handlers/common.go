// HTTP-обработчики: разбор запроса, вызов сервиса, единый формат ответа.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/parceltrack/backend/internal/domain"
	"github.com/parceltrack/backend/internal/middleware"
	"github.com/parceltrack/backend/internal/response"
)

const requestTimeout = 10 * time.Second

func reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// pathUUID разбирает параметр пути; при ошибке отвечает 400.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, domain.Validation("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// mustCaller возвращает вызывающего; маршрут обязан стоять за AuthMiddleware.
func mustCaller(c *gin.Context) (domain.Caller, bool) {
	caller, ok := middleware.Caller(c)
	if !ok {
		response.AbortWithError(c, http.StatusUnauthorized, "unauthorized")
	}
	return caller, ok
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Fail(c, domain.Validation("invalid request body: %v", err))
		return false
	}
	return true
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Validation("invalid %s", field)
	}
	return id, nil
}

// queryInt возвращает 0, если параметр не задан.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.Validation("%s must be a non-negative integer", name)
	}
	return n, nil
}

// nonNil, чтобы пустые списки уходили как [], а не null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
