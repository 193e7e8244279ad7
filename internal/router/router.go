// Роутер: сборка Gin с recovery, security headers, CORS, Swagger, WebSocket и /api.
package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/config"
	"github.com/parceltrack/backend/internal/docs"
	"github.com/parceltrack/backend/internal/handlers"
	"github.com/parceltrack/backend/internal/middleware"
	"github.com/parceltrack/backend/internal/realtime"
)

// Dependencies — всё, что нужно роутеру; сервисы собираются в internal/app.
type Dependencies struct {
	Config    *config.Config
	Logger    *zap.Logger
	Gate      middleware.IdentityResolver
	Redis     *redis.Client // nil — без rate limit
	Pinger    handlers.Pinger
	Hub       *realtime.Hub
	Shipments *handlers.Shipments
	Drivers   *handlers.Drivers
}

// New создаёт движок Gin: глобальные middleware, системные маршруты и /api.
func New(deps Dependencies) http.Handler {
	if deps.Config.AppEnv == "local" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RecoveryMiddleware(deps.Logger))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLoggerMiddleware(deps.Logger))
	r.Use(cors.New(corsConfig(deps.Config.Security.CORSOrigins)))

	RegisterSystem(r, deps)
	docs.Register(r)

	api := r.Group("/api")
	if deps.Redis != nil {
		api.Use(middleware.RateLimitMiddleware(deps.Redis, deps.Config.Security.RateLimitRPS))
	}
	RegisterShipments(api, deps)
	RegisterDrivers(api, deps)
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderXRequestID},
		ExposeHeaders: []string{middleware.HeaderXRequestID, "Retry-After"},
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
