// System router: health, status codes, WebSocket.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/parceltrack/backend/internal/handlers"
	"github.com/parceltrack/backend/internal/realtime"
)

// RegisterSystem mounts /health, /status-codes and /ws.
func RegisterSystem(r *gin.Engine, deps Dependencies) {
	r.GET("/health", handlers.Health(deps.Pinger))
	r.GET("/status-codes", handlers.StatusCodes)
	r.GET("/ws", realtime.Handler(deps.Hub, deps.Config.Security.CORSOrigins, deps.Logger))
}
