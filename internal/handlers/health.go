package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parceltrack/backend/internal/response"
)

// Pinger — проверка внешних зависимостей (infra.Infra).
type Pinger interface {
	Ping(ctx context.Context) map[string]string
}

// Health возвращает 200, если все настроенные бэкенды отвечают, иначе 503.
func Health(p Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		checks := p.Ping(ctx)
		for _, v := range checks {
			if !strings.HasPrefix(v, "ok") {
				c.JSON(http.StatusServiceUnavailable, response.Body{
					Status: http.StatusServiceUnavailable, Message: "degraded", Data: checks,
				})
				return
			}
		}
		response.Success(c, http.StatusOK, "ok", checks)
	}
}

// StatusCodeItem — код и сообщение для справочника.
type StatusCodeItem struct {
	Code    int    `json:"code"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

// statusCodesList — все коды статуса API с сообщениями (один GET для справки).
var statusCodesList = []StatusCodeItem{
	{http.StatusOK, "", "success"},
	{http.StatusCreated, "", "created"},
	{http.StatusBadRequest, "validation", "malformed or missing input"},
	{http.StatusUnauthorized, "", "missing or invalid bearer token"},
	{http.StatusForbidden, "forbidden", "ownership or role violation"},
	{http.StatusNotFound, "not_found", "unknown id or tracking number"},
	{http.StatusConflict, "conflict", "claim race lost or concurrent change"},
	{http.StatusConflict, "invalid_transition", "illegal status change"},
	{http.StatusTooManyRequests, "rate_limited", "too many requests"},
	{http.StatusInternalServerError, "", "internal error"},
}

// StatusCodes возвращает список всех кодов статуса и сообщений (GET /status-codes).
func StatusCodes(c *gin.Context) {
	response.Success(c, http.StatusOK, response.MsgSuccess, statusCodesList)
}
