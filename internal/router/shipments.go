// Shipments: публичное отслеживание, чтение истории/координат и операции под Bearer.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/parceltrack/backend/internal/middleware"
)

// RegisterShipments монтирует маршруты отправок, заявок и доставок.
func RegisterShipments(api *gin.RouterGroup, deps Dependencies) {
	h := deps.Shipments
	auth := middleware.AuthMiddleware(deps.Gate)
	reads := middleware.OptionalAuthMiddleware(deps.Gate, !deps.Config.Security.PublicShipmentReads)

	api.GET("/shipments/track/:trackingNumber", h.Track)
	api.GET("/shipments/:id/location", reads, h.Location)
	api.GET("/shipments/:id/events", reads, h.Events)

	shipments := api.Group("/shipments", auth)
	shipments.PATCH("/:id/status", h.UpdateStatus)
	shipments.POST("/:id/assign-driver", middleware.RequireAdmin(), h.AssignDriver)
	shipments.PATCH("/:id/package-status", middleware.RequireAdmin(), h.SetPackageStatus)

	me := api.Group("/users/me", auth)
	me.POST("/shipments", h.Create)
	me.GET("/shipments", h.ListMine)
	me.GET("/shipments/:id", h.GetMine)
	me.DELETE("/shipments/:id", h.DeleteMine)
	me.GET("/stats", h.Stats)

	me.GET("/available-packages", h.AvailablePackages)
	me.POST("/packages/:id/claim", h.Claim)
	me.GET("/deliveries", h.Deliveries)
	me.PATCH("/deliveries/:id/status", h.UpdateStatus)
}
