// Drivers: регистрация и профиль текущего пользователя, админка водителей, приём координат.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/parceltrack/backend/internal/middleware"
)

// RegisterDrivers монтирует маршруты водителей. Все требуют Authorization: Bearer.
func RegisterDrivers(api *gin.RouterGroup, deps Dependencies) {
	h := deps.Drivers
	auth := middleware.AuthMiddleware(deps.Gate)

	me := api.Group("/users/me", auth)
	me.GET("", h.Me)
	me.POST("/register-driver", h.Register)
	me.PATCH("/driver-profile", h.UpdateProfile)

	drivers := api.Group("/drivers", auth)
	drivers.GET("", middleware.RequireAdmin(), h.List)
	drivers.GET("/:id", h.Get)
	drivers.PATCH("/:id/status", middleware.RequireAdmin(), h.SetStatus)
	drivers.POST("/:id/location", h.ReportLocation("id"))

	api.POST("/location/:driverId", auth, h.ReportLocation("driverId"))
}
