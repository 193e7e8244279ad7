// Package response provides a unified API response format: status (HTTP code), message, data.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/parceltrack/backend/internal/domain"
)

// Body is the unified response structure for all API responses.
type Body struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Error   domain.Kind `json:"error,omitempty"`
}

// Success sends a successful response with status code, message and optional data.
func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	if message == "" {
		message = MsgSuccess
	}
	c.JSON(statusCode, Body{Status: statusCode, Message: message, Data: data})
}

// Error sends an error response with status code and message; data is nil.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Body{Status: statusCode, Message: message, Data: nil})
}

// AbortWithError aborts the chain and sends the unified error response (for middleware).
func AbortWithError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, Body{Status: statusCode, Message: message, Data: nil})
}

// Fail maps err onto the taxonomy: business errors keep their message,
// anything else becomes a 500 and is attached to the context for the
// request logger.
func Fail(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	if kind == "" {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, Body{
			Status: http.StatusInternalServerError, Message: MsgInternal,
		})
		return
	}
	code := StatusFor(kind)
	if kind == domain.KindRateLimited {
		c.Header("Retry-After", "60")
	}
	c.AbortWithStatusJSON(code, Body{Status: code, Message: err.Error(), Error: kind})
}

// StatusFor returns the HTTP status of a business error kind.
func StatusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindConflict, domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Common messages.
const (
	MsgSuccess  = "success"
	MsgCreated  = "created"
	MsgDeleted  = "deleted"
	MsgInternal = "internal error"
)
