package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/parceltrack/backend/internal/config"
	"github.com/parceltrack/backend/internal/db"
	"github.com/parceltrack/backend/internal/drivers"
	"github.com/parceltrack/backend/internal/events"
	"github.com/parceltrack/backend/internal/location"
	"github.com/parceltrack/backend/internal/migrations"
	redisclient "github.com/parceltrack/backend/internal/redis"
	"github.com/parceltrack/backend/internal/shipments"
)

// Infra — внешние подключения; nil-поля означают, что бэкенд не настроен.
type Infra struct {
	PG    *pgxpool.Pool
	Redis *redis.Client
}

// Stores — реализации хранилищ по STORAGE_DRIVER и LOCATION_BACKEND.
type Stores struct {
	Shipments shipments.Store
	Events    events.Store
	Drivers   drivers.Store
	Locations location.Store
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Infra, error) {
	inf := &Infra{}
	if cfg.Storage.Driver == "postgres" {
		if cfg.Postgres.MigrateOnStart {
			if err := migrate(cfg.Postgres.DSN, logger); err != nil {
				return nil, err
			}
		}
		pool, err := db.NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		inf.PG = pool
	}
	if cfg.Redis.Enabled() {
		rdb, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			inf.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		inf.Redis = rdb
	}
	logger.Info("infra ready",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("location", cfg.Location.Backend),
		zap.Bool("redis", inf.Redis != nil))
	return inf, nil
}

func migrate(dsn string, logger *zap.Logger) error {
	r, err := migrations.NewRunner(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	if err := r.Up(0); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	v, _, err := r.Version()
	if err != nil {
		return err
	}
	logger.Info("migrations applied", zap.Uint("version", v))
	return nil
}

// TxRunner — транзакции Postgres; для memory-хранилищ no-op.
func (i *Infra) TxRunner(cfg *config.Config) db.TxRunner {
	if cfg.Storage.Driver == "postgres" && i.PG != nil {
		return db.NewTxRunner(i.PG)
	}
	return db.NoTx{}
}

// Stores выбирает реализации; memory-хранилища живут в процессе.
func (i *Infra) Stores(cfg *config.Config) Stores {
	var s Stores
	if i.PG != nil {
		s.Shipments = shipments.NewRepo(i.PG)
		s.Events = events.NewRepo(i.PG)
		s.Drivers = drivers.NewRepo(i.PG)
	} else {
		s.Shipments = shipments.NewMemoryStore()
		s.Events = events.NewMemoryStore()
		s.Drivers = drivers.NewMemoryStore()
	}
	switch {
	case cfg.Location.Backend == "redis" && i.Redis != nil:
		s.Locations = location.NewRedisStore(i.Redis, 24*cfg.Location.OfflineAfter)
	case cfg.Location.Backend == "postgres" && i.PG != nil:
		s.Locations = location.NewRepo(i.PG)
	default:
		s.Locations = location.NewMemoryStore()
	}
	return s
}

// Ping проверяет доступность настроенных бэкендов (для /health).
func (i *Infra) Ping(ctx context.Context) map[string]string {
	out := map[string]string{}
	if i.PG != nil {
		out["postgres"] = status(i.PG.Ping(ctx))
	}
	if i.Redis != nil {
		out["redis"] = status(i.Redis.Ping(ctx).Err())
	}
	return out
}

func status(err error) string {
	if err != nil {
		return "down: " + err.Error()
	}
	return "ok"
}

func (i *Infra) Close() {
	if i == nil {
		return
	}
	if i.PG != nil {
		i.PG.Close()
	}
	if i.Redis != nil {
		_ = i.Redis.Close()
	}
}
