package location

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether a driver may submit another sample now.
type Limiter interface {
	Allow(ctx context.Context, driverID uuid.UUID) (bool, error)
}

// RedisLimiter — фиксированное окно в минуту на водителя, общее для всех инстансов.
type RedisLimiter struct {
	rdb    *redis.Client
	perMin int
	now    func() time.Time
}

func NewRedisLimiter(rdb *redis.Client, perMin int) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, perMin: perMin, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, driverID uuid.UUID) (bool, error) {
	key := fmt.Sprintf("ratelimit:location:%s:%d", driverID, l.now().Unix()/60)
	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("location rate limit: %w", err)
	}
	return incr.Val() <= int64(l.perMin), nil
}
