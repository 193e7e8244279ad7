// Сборка приложения: хранилища -> сервисы -> HTTP-обработчики и фоновые задачи.
package app

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/config"
	"github.com/parceltrack/backend/internal/drivers"
	"github.com/parceltrack/backend/internal/events"
	"github.com/parceltrack/backend/internal/handlers"
	"github.com/parceltrack/backend/internal/infra"
	"github.com/parceltrack/backend/internal/lifecycle"
	"github.com/parceltrack/backend/internal/location"
	"github.com/parceltrack/backend/internal/presence"
	"github.com/parceltrack/backend/internal/realtime"
	"github.com/parceltrack/backend/internal/router"
	"github.com/parceltrack/backend/internal/security"
	"github.com/parceltrack/backend/internal/shipments"
)

const hubBuffer = 64

type App struct {
	cfg    *config.Config
	infra  *infra.Infra
	logger *zap.Logger

	JWT       *security.JWTManager
	Gate      *security.Gate
	Drivers   *drivers.Service
	Shipments *shipments.Service
	Events    *events.Log
	Engine    *lifecycle.Engine
	Location  *location.Service
	Hub       *realtime.Hub
	Broker    *realtime.RedisBroker // nil без Redis
	Sweeper   *presence.Sweeper
}

func New(cfg *config.Config, inf *infra.Infra, logger *zap.Logger) *App {
	stores := inf.Stores(cfg)
	a := &App{cfg: cfg, infra: inf, logger: logger}

	a.Hub = realtime.NewHub(hubBuffer, logger)
	var pub realtime.Publisher = a.Hub
	if inf.Redis != nil {
		a.Broker = realtime.NewRedisBroker(inf.Redis, a.Hub, logger)
		pub = a.Broker
	}

	a.Events = events.NewLog(stores.Events)
	a.Drivers = drivers.NewService(stores.Drivers, logger)
	tx := inf.TxRunner(cfg)
	a.Shipments = shipments.NewService(stores.Shipments, a.Events, logger).WithTx(tx)
	a.Engine = lifecycle.NewEngine(stores.Shipments, a.Drivers, a.Events, pub, logger).WithTx(tx)
	a.Location = location.NewService(stores.Locations, a.Drivers, a.Shipments, logger)
	if cfg.Location.RateLimitPerMin > 0 && inf.Redis != nil {
		a.Location.WithLimiter(location.NewRedisLimiter(inf.Redis, cfg.Location.RateLimitPerMin))
	}

	a.JWT = security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTAccessTTL)
	a.Gate = security.NewGate(a.JWT, a.Drivers)
	a.Sweeper = presence.NewSweeper(a.Drivers, cfg.Location.OfflineAfter, logger)
	return a
}

// Handler — HTTP-обработчик со всеми маршрутами.
func (a *App) Handler() http.Handler {
	return router.New(router.Dependencies{
		Config:    a.cfg,
		Logger:    a.logger,
		Gate:      a.Gate,
		Redis:     a.infra.Redis,
		Pinger:    a.infra,
		Hub:       a.Hub,
		Shipments: handlers.NewShipments(a.Shipments, a.Engine, a.Events, a.Location, a.cfg.Security.PublicShipmentReads),
		Drivers:   handlers.NewDrivers(a.Drivers, a.Location),
	})
}

// Start запускает фоновые задачи: relay Redis -> hub и sweeper присутствия.
func (a *App) Start(ctx context.Context) error {
	if a.Broker != nil {
		ready := make(chan struct{})
		failed := make(chan error, 1)
		go func() {
			if err := a.Broker.Run(ctx, ready); err != nil {
				a.logger.Error("realtime relay stopped", zap.Error(err))
				failed <- err
			}
		}()
		select {
		case <-ready:
		case err := <-failed:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if a.cfg.Location.SweepSchedule != "" {
		if err := a.Sweeper.Start(a.cfg.Location.SweepSchedule); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Stop() {
	a.Sweeper.Stop()
}
